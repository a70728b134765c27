package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/teamtodo/teamtodo-api/internal/constants"
	"github.com/teamtodo/teamtodo-api/internal/hasher"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
)

func newAPIKeyService(t *testing.T) (*APIKeyService, func(t *testing.T, email, slug string) (models.User, models.Tenant)) {
	t.Helper()

	db := setupServiceDB(t)
	svc := NewAPIKeyService(db, repository.NewAPIKeyRepository(db), hasher.New(bcrypt.MinCost))

	seed := func(t *testing.T, email, slug string) (models.User, models.Tenant) {
		t.Helper()
		user := createUser(t, db, email, strings.SplitN(email, "@", 2)[0])
		tenant := createTenant(t, db, slug, slug)
		addMembership(t, db, tenant.ID, user.ID, models.RoleOwner)
		return user, tenant
	}

	return svc, seed
}

func TestAPIKeyService_CreateAndValidate(t *testing.T) {
	svc, seed := newAPIKeyService(t)
	user, tenant := seed(t, "owner@example.com", "alpha")
	ctx := context.Background()

	rawKey, key, err := svc.CreateKey(ctx, CreateKeyInput{
		TenantID: tenant.ID,
		UserID:   &user.ID,
		Name:     "ci",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rawKey, constants.APIKeyPrefix))
	require.NotEqual(t, rawKey, key.KeyHash)

	resolved, err := svc.Validate(ctx, rawKey)
	require.NoError(t, err)
	require.Equal(t, key.ID, resolved.ID)
	require.Equal(t, tenant.ID, resolved.Tenant.ID)
	require.NotNil(t, resolved.User)
	require.Equal(t, user.ID, resolved.User.ID)
	require.NotNil(t, resolved.LastUsedAt)
}

func TestAPIKeyService_ValidateRejects(t *testing.T) {
	svc, seed := newAPIKeyService(t)
	user, tenant := seed(t, "owner@example.com", "alpha")
	ctx := context.Background()

	rawKey, key, err := svc.CreateKey(ctx, CreateKeyInput{
		TenantID: tenant.ID,
		UserID:   &user.ID,
		Name:     "ci",
	})
	require.NoError(t, err)

	t.Run("wrong prefix", func(t *testing.T) {
		_, err := svc.Validate(ctx, "sk_"+strings.TrimPrefix(rawKey, constants.APIKeyPrefix))
		require.ErrorIs(t, err, ErrInvalidAPIKey)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.Validate(ctx, constants.APIKeyPrefix+strings.Repeat("x", constants.APIKeySecretLength))
		require.ErrorIs(t, err, ErrInvalidAPIKey)
	})

	t.Run("revoked", func(t *testing.T) {
		require.NoError(t, svc.RevokeKey(ctx, tenant.ID, key.ID))
		_, err := svc.Validate(ctx, rawKey)
		require.ErrorIs(t, err, ErrInvalidAPIKey)
	})
}

func TestAPIKeyService_ExpiredKeyRejected(t *testing.T) {
	svc, seed := newAPIKeyService(t)
	user, tenant := seed(t, "owner@example.com", "alpha")
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	rawKey, _, err := svc.CreateKey(ctx, CreateKeyInput{
		TenantID:  tenant.ID,
		UserID:    &user.ID,
		Name:      "stale",
		ExpiresAt: &past,
	})
	require.NoError(t, err)

	_, err = svc.Validate(ctx, rawKey)
	require.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestAPIKeyService_InactiveTenantKeyRejected(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewAPIKeyService(db, repository.NewAPIKeyRepository(db), hasher.New(bcrypt.MinCost))
	ctx := context.Background()

	user := createUser(t, db, "owner@example.com", "owner")
	tenant := createTenant(t, db, "alpha", "alpha")
	addMembership(t, db, tenant.ID, user.ID, models.RoleOwner)

	rawKey, _, err := svc.CreateKey(ctx, CreateKeyInput{
		TenantID: tenant.ID,
		UserID:   &user.ID,
		Name:     "ci",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Tenant{}).
		Where("id = ?", tenant.ID).
		Update("is_active", false).Error)

	_, err = svc.Validate(ctx, rawKey)
	require.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestAPIKeyService_TenantOnlyKeyHasNoUser(t *testing.T) {
	svc, seed := newAPIKeyService(t)
	_, tenant := seed(t, "owner@example.com", "alpha")
	ctx := context.Background()

	rawKey, _, err := svc.CreateKey(ctx, CreateKeyInput{
		TenantID: tenant.ID,
		Name:     "automation",
	})
	require.NoError(t, err)

	resolved, err := svc.Validate(ctx, rawKey)
	require.NoError(t, err)
	require.Nil(t, resolved.UserID)
	require.Nil(t, resolved.User)
	require.Equal(t, tenant.ID, resolved.TenantID)
}

func TestAPIKeyService_ListAndDeleteAreTenantScoped(t *testing.T) {
	svc, seed := newAPIKeyService(t)
	userA, tenantA := seed(t, "a@example.com", "alpha")
	userB, tenantB := seed(t, "b@example.com", "beta")
	ctx := context.Background()

	_, keyA, err := svc.CreateKey(ctx, CreateKeyInput{TenantID: tenantA.ID, UserID: &userA.ID, Name: "a"})
	require.NoError(t, err)
	_, keyB, err := svc.CreateKey(ctx, CreateKeyInput{TenantID: tenantB.ID, UserID: &userB.ID, Name: "b"})
	require.NoError(t, err)

	keys, err := svc.ListKeys(ctx, tenantA.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, keyA.ID, keys[0].ID)

	// Tenant A cannot reach tenant B's key, not even by id.
	err = svc.DeleteKey(ctx, tenantA.ID, keyB.ID)
	require.ErrorIs(t, err, ErrAPIKeyNotFound)

	require.NoError(t, svc.DeleteKey(ctx, tenantB.ID, keyB.ID))
	keys, err = svc.ListKeys(ctx, tenantB.ID)
	require.NoError(t, err)
	require.Empty(t, keys)
}
