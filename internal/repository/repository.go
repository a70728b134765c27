package repository

import (
	"context"
	"time"

	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateWithDefaultTenant creates a user, their default tenant, the
	// owner membership and an initial session within a single transaction.
	CreateWithDefaultTenant(user *models.User, tenant *models.Tenant, membership *models.Membership, session *models.Session) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email (case-sensitive)
	FindByEmail(email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// Delete removes a user and cascades memberships, sessions and API keys
	Delete(id uint64) error
}

// TenantRepository defines the interface for tenant data access
type TenantRepository interface {
	// Create creates a new tenant
	Create(tenant *models.Tenant) error

	// CreateWithOwner creates a tenant and its owner membership
	// atomically; a tenant must never exist without an owner
	CreateWithOwner(tenant *models.Tenant, ownerID uint64) error

	// FindByID finds a tenant by ID
	FindByID(id uint64) (*models.Tenant, error)

	// SlugExists reports whether a slug is already taken
	SlugExists(slug string) (bool, error)

	// Update updates a tenant
	Update(tenant *models.Tenant) error

	// Delete deletes a tenant and all rows belonging to it
	Delete(id uint64) error

	// List lists all tenants (admin surface)
	List() ([]models.Tenant, error)
}

// MembershipRepository defines the interface for membership data access
type MembershipRepository interface {
	// Create adds a membership
	Create(membership *models.Membership) error

	// Find finds a specific membership
	Find(tenantID, userID uint64) (*models.Membership, error)

	// FindOwner finds the owner membership of a tenant
	FindOwner(tenantID uint64) (*models.Membership, error)

	// UpdateRole changes a member's role
	UpdateRole(tenantID, userID uint64, role models.MembershipRole) error

	// TransferOwnership atomically promotes newOwnerID to owner and
	// demotes previousOwnerID to admin.
	TransferOwnership(tenantID, previousOwnerID, newOwnerID uint64) error

	// Delete removes a membership
	Delete(tenantID, userID uint64) error

	// LeaveWithReassignment removes the membership and, in the same
	// transaction, repoints any of the user's sessions whose active
	// tenant was the one left at a remaining membership (or none).
	// Returns the substitute tenant id, nil when no membership remains.
	LeaveWithReassignment(tenantID, userID uint64) (*uint64, error)

	// ListByUser lists a user's memberships with tenants preloaded
	ListByUser(userID uint64) ([]models.Membership, error)

	// ListByTenant lists a tenant's memberships with users preloaded
	ListByTenant(tenantID uint64) ([]models.Membership, error)
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	// Create creates a new session
	Create(session *models.Session) error

	// FindValidByToken finds a non-expired session by token with its
	// user and tenant loaded. Absent and expired both yield
	// gorm.ErrRecordNotFound.
	FindValidByToken(token string, now time.Time) (*models.Session, error)

	// UpdateTenant reassigns a non-expired session's active tenant.
	// Returns the number of rows affected.
	UpdateTenant(token string, tenantID *uint64, now time.Time) (int64, error)

	// DeleteByToken deletes a session; deleting a missing token is not an error
	DeleteByToken(token string) error

	// DeleteAllForUser deletes every session of a user
	DeleteAllForUser(userID uint64) error
}

// APIKeyRepository defines the interface for API key data access. The
// tenant-scoped methods expect to run over a tenant-bound transaction.
type APIKeyRepository interface {
	// Create creates a new API key under the tenant binding
	Create(key *models.APIKey) error

	// ListValidationCandidates lists active, non-expired keys belonging
	// to active tenants, bypassing the tenant guard: during validation
	// no tenant is known yet.
	ListValidationCandidates(ctx context.Context, now time.Time) ([]models.APIKey, error)

	// TouchLastUsed stamps last_used_at, best-effort
	TouchLastUsed(ctx context.Context, id uint64, now time.Time) error

	// FindByID finds a key within the bound tenant
	FindByID(id uint64) (*models.APIKey, error)

	// ListByTenant lists the bound tenant's keys
	ListByTenant() ([]models.APIKey, error)

	// Update updates a key within the bound tenant
	Update(key *models.APIKey) error

	// Delete removes a key within the bound tenant
	Delete(id uint64) error
}

// PasswordResetRepository defines the interface for reset token data access
type PasswordResetRepository interface {
	// Create creates a new reset token
	Create(token *models.PasswordResetToken) error

	// FindValidByToken finds an unused, non-expired token
	FindValidByToken(token string, now time.Time) (*models.PasswordResetToken, error)

	// Consume atomically rewrites the user's password digest, marks the
	// token used and deletes all of the user's sessions.
	Consume(token *models.PasswordResetToken, passwordHash string, now time.Time) error
}

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// Create creates a new invitation
	Create(invitation *models.Invitation) error

	// FindByID finds an invitation by ID
	FindByID(id uint64) (*models.Invitation, error)

	// FindByToken finds an invitation by token with tenant and inviter loaded
	FindByToken(token string) (*models.Invitation, error)

	// HasPending reports whether an unexpired pending invitation exists for the
	// (tenant, email) pair.
	HasPending(tenantID uint64, email string, now time.Time) (bool, error)

	// ListByTenant lists a tenant's invitations with inviters loaded
	ListByTenant(tenantID uint64) ([]models.Invitation, error)

	// Transition moves an invitation out of pending. Returns the number
	// of rows affected: zero means the invitation was not pending.
	Transition(id uint64, to models.InvitationStatus, acceptedAt *time.Time) (int64, error)

	// AcceptWithMembership transitions the invitation to accepted and
	// creates or upgrades the membership in one transaction.
	AcceptWithMembership(invitation *models.Invitation, userID uint64, now time.Time) error
}

// TodoFilter holds filtering options for listing todos
type TodoFilter struct {
	Status     *models.TodoStatus
	TagID      *uint64
	Search     string
	Pagination utils.PaginationParams
}

// TodoRepository defines the interface for todo data access. All methods
// run against a tenant-bound transaction.
type TodoRepository interface {
	Create(todo *models.Todo) error
	FindByID(id uint64) (*models.Todo, error)
	List(filter TodoFilter) ([]models.Todo, int64, error)
	Update(todo *models.Todo) error
	ReplaceTags(todo *models.Todo, tags []models.Tag) error
	Delete(id uint64) error
}

// TagRepository defines the interface for tag data access. All methods
// run against a tenant-bound transaction.
type TagRepository interface {
	Create(tag *models.Tag) error
	FindByID(id uint64) (*models.Tag, error)
	FindByIDs(ids []uint64) ([]models.Tag, error)
	FindByName(name string) (*models.Tag, error)
	List() ([]models.Tag, error)
	Update(tag *models.Tag) error
	Delete(id uint64) error
}
