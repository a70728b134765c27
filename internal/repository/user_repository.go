package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating the user fails inside the signup transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateTenant is returned when creating the default tenant fails inside the signup transaction.
	ErrCreateTenant = errors.New("user repository: create tenant failed")
	// ErrCreateMembership is returned when creating the owner membership fails inside the signup transaction.
	ErrCreateMembership = errors.New("user repository: create membership failed")
	// ErrCreateSession is returned when creating the initial session fails inside the signup transaction.
	ErrCreateSession = errors.New("user repository: create session failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// CreateWithDefaultTenant creates the user, their default tenant, the owner
// membership and the initial session atomically. A failure at any step
// rolls back the whole signup.
func (r *GormUserRepository) CreateWithDefaultTenant(user *models.User, tenant *models.Tenant, membership *models.Membership, session *models.Session) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		if err := tx.Create(tenant).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateTenant, err)
		}

		membership.TenantID = tenant.ID
		membership.UserID = user.ID
		if err := tx.Create(membership).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateMembership, err)
		}

		session.UserID = user.ID
		session.TenantID = &tenant.ID
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateSession, err)
		}

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user with their memberships, sessions, API keys and
// reset tokens in one transaction.
func (r *GormUserRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		// API keys are tenant-guarded; user deletion is an admin
		// operation that crosses tenants.
		if err := tx.WithContext(bypassContext(tx)).
			Where("user_id = ?", id).
			Delete(&models.APIKey{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
}
