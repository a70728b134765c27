package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/mailer"
	"github.com/teamtodo/teamtodo-api/internal/models"
	"github.com/teamtodo/teamtodo-api/internal/repository"
)

type invitationTestEnv struct {
	db    *gorm.DB
	svc   *InvitationService
	owner models.User
	plain models.User
	org   models.Tenant
}

func setupInvitationTestEnv(t *testing.T) invitationTestEnv {
	t.Helper()

	db := setupServiceDB(t)
	membershipRepo := repository.NewMembershipRepository(db)
	memberships := NewMembershipService(membershipRepo)
	svc := NewInvitationService(
		repository.NewInvitationRepository(db),
		membershipRepo,
		repository.NewUserRepository(db),
		memberships,
		mailer.NewLogSender(),
	)

	owner := createUser(t, db, "owner@example.com", "owner")
	plain := createUser(t, db, "member@example.com", "member")
	org := createTenant(t, db, "Alpha", "alpha")
	addMembership(t, db, org.ID, owner.ID, models.RoleOwner)
	addMembership(t, db, org.ID, plain.ID, models.RoleMember)

	return invitationTestEnv{db: db, svc: svc, owner: owner, plain: plain, org: org}
}

func (env invitationTestEnv) invite(t *testing.T, email string) *models.Invitation {
	t.Helper()

	invitation, err := env.svc.Create(CreateInvitationInput{
		ActorID:  env.owner.ID,
		TenantID: env.org.ID,
		Email:    email,
		Role:     models.RoleMember,
	})
	require.NoError(t, err)
	return invitation
}

func TestInvitationService_Create(t *testing.T) {
	env := setupInvitationTestEnv(t)

	invitation := env.invite(t, "guest@example.com")
	require.Equal(t, models.InvitationPending, invitation.Status)
	require.NotEmpty(t, invitation.Token)
	require.WithinDuration(t, time.Now().AddDate(0, 0, 7), invitation.ExpiresAt, time.Minute)
}

func TestInvitationService_CreateRejections(t *testing.T) {
	env := setupInvitationTestEnv(t)
	env.invite(t, "guest@example.com")

	_, err := env.svc.Create(CreateInvitationInput{
		ActorID:  env.owner.ID,
		TenantID: env.org.ID,
		Email:    "guest@example.com",
		Role:     models.RoleMember,
	})
	require.ErrorIs(t, err, ErrDuplicateInvitation)

	_, err = env.svc.Create(CreateInvitationInput{
		ActorID:  env.owner.ID,
		TenantID: env.org.ID,
		Email:    "member@example.com",
		Role:     models.RoleMember,
	})
	require.ErrorIs(t, err, ErrInviteeAlreadyMember)

	_, err = env.svc.Create(CreateInvitationInput{
		ActorID:  env.plain.ID,
		TenantID: env.org.ID,
		Email:    "other@example.com",
		Role:     models.RoleMember,
	})
	require.ErrorIs(t, err, ErrInsufficientRole)

	_, err = env.svc.Create(CreateInvitationInput{
		ActorID:  env.owner.ID,
		TenantID: env.org.ID,
		Email:    "other@example.com",
		Role:     models.RoleOwner,
	})
	require.ErrorIs(t, err, ErrInvalidMembershipRole)

	_, err = env.svc.Create(CreateInvitationInput{
		ActorID:  env.owner.ID,
		TenantID: env.org.ID,
		Email:    "not-an-email",
		Role:     models.RoleMember,
	})
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestInvitationService_AcceptCreatesMembership(t *testing.T) {
	env := setupInvitationTestEnv(t)
	invitation := env.invite(t, "guest@example.com")

	guest := createUser(t, env.db, "guest@example.com", "guest")

	tenantID, err := env.svc.Accept(guest.ID, invitation.Token)
	require.NoError(t, err)
	require.Equal(t, env.org.ID, tenantID)

	var membership models.Membership
	require.NoError(t, env.db.
		Where("tenant_id = ? AND user_id = ?", env.org.ID, guest.ID).
		First(&membership).Error)
	require.Equal(t, models.RoleMember, membership.Role)

	var reloaded models.Invitation
	require.NoError(t, env.db.First(&reloaded, invitation.ID).Error)
	require.Equal(t, models.InvitationAccepted, reloaded.Status)
	require.NotNil(t, reloaded.AcceptedAt)
}

func TestInvitationService_TerminalStatesAreFinal(t *testing.T) {
	env := setupInvitationTestEnv(t)
	invitation := env.invite(t, "guest@example.com")
	guest := createUser(t, env.db, "guest@example.com", "guest")

	_, err := env.svc.Accept(guest.ID, invitation.Token)
	require.NoError(t, err)

	// Accepted is terminal for every transition, including re-accept.
	_, err = env.svc.Accept(guest.ID, invitation.Token)
	require.ErrorIs(t, err, ErrInvitationAlreadyHandled)

	err = env.svc.Decline(guest.ID, invitation.Token)
	require.ErrorIs(t, err, ErrInvitationAlreadyHandled)

	err = env.svc.Revoke(env.owner.ID, invitation.ID)
	require.ErrorIs(t, err, ErrInvitationNotRevocable)
}

func TestInvitationService_Decline(t *testing.T) {
	env := setupInvitationTestEnv(t)
	invitation := env.invite(t, "guest@example.com")
	guest := createUser(t, env.db, "guest@example.com", "guest")

	require.NoError(t, env.svc.Decline(guest.ID, invitation.Token))

	var count int64
	require.NoError(t, env.db.Model(&models.Membership{}).
		Where("tenant_id = ? AND user_id = ?", env.org.ID, guest.ID).
		Count(&count).Error)
	require.Zero(t, count)

	var reloaded models.Invitation
	require.NoError(t, env.db.First(&reloaded, invitation.ID).Error)
	require.Equal(t, models.InvitationDeclined, reloaded.Status)
}

func TestInvitationService_Revoke(t *testing.T) {
	env := setupInvitationTestEnv(t)
	invitation := env.invite(t, "guest@example.com")

	err := env.svc.Revoke(env.plain.ID, invitation.ID)
	require.ErrorIs(t, err, ErrInsufficientRole)

	require.NoError(t, env.svc.Revoke(env.owner.ID, invitation.ID))

	guest := createUser(t, env.db, "guest@example.com", "guest")
	_, err = env.svc.Accept(guest.ID, invitation.Token)
	require.ErrorIs(t, err, ErrInvitationAlreadyHandled)
}

func TestInvitationService_ExpiredInvitation(t *testing.T) {
	env := setupInvitationTestEnv(t)
	invitation := env.invite(t, "guest@example.com")

	require.NoError(t, env.db.Model(&models.Invitation{}).
		Where("id = ?", invitation.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	guest := createUser(t, env.db, "guest@example.com", "guest")
	_, err := env.svc.Accept(guest.ID, invitation.Token)
	require.ErrorIs(t, err, ErrInvitationExpired)

	view, err := env.svc.GetByToken(invitation.Token)
	require.NoError(t, err)
	require.True(t, view.Expired)
	require.Equal(t, models.InvitationPending, view.Status)
}

func TestInvitationService_ExpiredInvitationDoesNotBlockReinvite(t *testing.T) {
	env := setupInvitationTestEnv(t)
	invitation := env.invite(t, "guest@example.com")

	// The row stays pending after expiry; only a live pending
	// invitation counts as a duplicate.
	require.NoError(t, env.db.Model(&models.Invitation{}).
		Where("id = ?", invitation.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	fresh := env.invite(t, "guest@example.com")
	require.NotEqual(t, invitation.Token, fresh.Token)
	require.Equal(t, models.InvitationPending, fresh.Status)
}

func TestInvitationService_PublicViewRedaction(t *testing.T) {
	env := setupInvitationTestEnv(t)
	invitation := env.invite(t, "guest@example.com")

	view, err := env.svc.GetByToken(invitation.Token)
	require.NoError(t, err)
	require.Equal(t, "Alpha", view.OrganizationName)
	require.Equal(t, "owner", view.InviterName)
	require.Equal(t, models.RoleMember, view.Role)
	require.False(t, view.Expired)

	_, err = env.svc.GetByToken("no-such-token")
	require.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestInvitationService_AcceptOnExistingMembership(t *testing.T) {
	env := setupInvitationTestEnv(t)

	// The invitee joins as admin between invite and accept: accepting
	// moves them to the invited role.
	invitation := env.invite(t, "guest@example.com")
	guest := createUser(t, env.db, "guest@example.com", "guest")
	addMembership(t, env.db, env.org.ID, guest.ID, models.RoleAdmin)

	_, err := env.svc.Accept(guest.ID, invitation.Token)
	require.NoError(t, err)

	var membership models.Membership
	require.NoError(t, env.db.
		Where("tenant_id = ? AND user_id = ?", env.org.ID, guest.ID).
		First(&membership).Error)
	require.Equal(t, models.RoleMember, membership.Role)
}

func TestInvitationService_AcceptNeverDowngradesOwner(t *testing.T) {
	env := setupInvitationTestEnv(t)

	// The invitee becomes the owner between invite and accept.
	invitation := env.invite(t, "guest@example.com")
	guest := createUser(t, env.db, "guest@example.com", "guest")
	require.NoError(t, env.db.Model(&models.Membership{}).
		Where("tenant_id = ? AND user_id = ?", env.org.ID, env.owner.ID).
		Update("user_id", guest.ID).Error)

	_, err := env.svc.Accept(guest.ID, invitation.Token)
	require.NoError(t, err)

	var membership models.Membership
	require.NoError(t, env.db.
		Where("tenant_id = ? AND user_id = ?", env.org.ID, guest.ID).
		First(&membership).Error)
	require.Equal(t, models.RoleOwner, membership.Role)
}
