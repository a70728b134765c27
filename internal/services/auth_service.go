package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/constants"
	"github.com/teamtodo/teamtodo-api/internal/hasher"
	"github.com/teamtodo/teamtodo-api/internal/mailer"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
	"github.com/teamtodo/teamtodo-api/internal/utils"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidUsername    = errors.New("username must be 3-30 characters of letters, digits, underscore or hyphen")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// AuthService handles signup, login and password resets.
type AuthService struct {
	userRepo       repository.UserRepository
	tenantRepo     repository.TenantRepository
	membershipRepo repository.MembershipRepository
	resetRepo      repository.PasswordResetRepository
	sessions       *SessionService
	hash           *hasher.Hasher
	sender         mailer.EmailSender
	resetLifetime  time.Duration
}

// NewAuthService creates a new AuthService. Reset token lifetime is
// expressed in hours.
func NewAuthService(
	userRepo repository.UserRepository,
	tenantRepo repository.TenantRepository,
	membershipRepo repository.MembershipRepository,
	resetRepo repository.PasswordResetRepository,
	sessions *SessionService,
	hash *hasher.Hasher,
	sender mailer.EmailSender,
	resetLifetimeHours int,
) *AuthService {
	if resetLifetimeHours <= 0 {
		resetLifetimeHours = 2
	}
	return &AuthService{
		userRepo:       userRepo,
		tenantRepo:     tenantRepo,
		membershipRepo: membershipRepo,
		resetRepo:      resetRepo,
		sessions:       sessions,
		hash:           hash,
		sender:         sender,
		resetLifetime:  time.Duration(resetLifetimeHours) * time.Hour,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Email    string
	Username string
	Password string
}

// Signup creates a user, their default tenant, the owner membership and
// an initial session in one transaction. A failure at any step leaves
// nothing behind.
func (s *AuthService) Signup(input SignupInput) (*models.User, *models.Session, error) {
	email := strings.TrimSpace(input.Email)
	username := strings.TrimSpace(input.Username)

	if !emailRe.MatchString(email) {
		return nil, nil, ErrInvalidEmail
	}
	if len(username) < constants.MinUsernameLength || len(username) > constants.MaxUsernameLength || !usernameRe.MatchString(username) {
		return nil, nil, ErrInvalidUsername
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check username: %w", err)
	}

	digest, err := s.hash.Hash(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: digest,
	}

	tenantName := fmt.Sprintf("%s's workspace", username)
	slug, err := s.uniqueSlug(tenantName)
	if err != nil {
		return nil, nil, err
	}

	tenant := &models.Tenant{
		Name:     tenantName,
		Slug:     slug,
		IsActive: true,
	}

	membership := &models.Membership{
		Role:      models.RoleOwner,
		CreatedAt: time.Now(),
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	session := &models.Session{
		SessionToken: token,
		ExpiresAt:    time.Now().Add(s.sessions.Lifetime()),
	}

	if err := s.userRepo.CreateWithDefaultTenant(user, tenant, membership, session); err != nil {
		return nil, nil, fmt.Errorf("failed to complete signup: %w", err)
	}

	return user, session, nil
}

// uniqueSlug derives a slug from name and de-duplicates it with numeric
// suffixes.
func (s *AuthService) uniqueSlug(name string) (string, error) {
	base := utils.Slugify(name)
	slug := base
	for i := 2; ; i++ {
		taken, err := s.tenantRepo.SlugExists(slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and starts a session. Failures never
// disclose whether the email exists.
func (s *AuthService) Login(input LoginInput) (*models.User, *models.Session, error) {
	user, err := s.userRepo.FindByEmail(strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hash.Verify(input.Password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	// The active tenant defaults to any membership; a user without
	// memberships gets a tenant-less session.
	var tenantID *uint64
	memberships, err := s.membershipRepo.ListByUser(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	if len(memberships) > 0 {
		tenantID = &memberships[0].TenantID
	}

	session, err := s.sessions.Create(user.ID, tenantID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset creates a reset token and mails it. It reports
// success whether or not the email exists.
func (s *AuthService) RequestPasswordReset(email string) error {
	user, err := s.userRepo.FindByEmail(strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	reset := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.resetLifetime),
	}
	if err := s.resetRepo.Create(reset); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	mailer.Dispatch(s.sender,
		user.Email,
		"Reset your password",
		fmt.Sprintf("Use this token to reset your password: %s", token),
		fmt.Sprintf("<p>Use this token to reset your password: <strong>%s</strong></p>", token),
	)

	return nil
}

// ConfirmPasswordReset consumes a reset token: the password digest is
// rewritten, the token marked used and every session of the user
// invalidated, all in one transaction.
func (s *AuthService) ConfirmPasswordReset(token, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	reset, err := s.resetRepo.FindValidByToken(token, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	digest, err := s.hash.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.resetRepo.Consume(reset, digest, time.Now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	return nil
}
