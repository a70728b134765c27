package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamtodo/teamtodo-api/internal/dto"
	"github.com/teamtodo/teamtodo-api/internal/models"
)

func TestAuthHandler_SignupCreatesDefaultOrganization(t *testing.T) {
	env := setupHandlerTestEnv(t)

	cookies := env.signup(t, "alice@example.com", "alice", "supersecret")

	var user models.User
	require.NoError(t, env.db.Where("email = ?", "alice@example.com").First(&user).Error)

	var membership models.Membership
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&membership).Error)
	require.Equal(t, models.RoleOwner, membership.Role)

	// The signup response carried a live session.
	w := env.request(t, http.MethodGet, "/api/auth/me", nil, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		User         dto.UserDTO         `json:"user"`
		Organization dto.OrganizationDTO `json:"organization"`
	}
	decodeJSON(t, w, &me)
	require.Equal(t, "alice", me.User.Username)
	require.Equal(t, membership.TenantID, me.Organization.ID)
}

func TestAuthHandler_SignupValidation(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.signup(t, "alice@example.com", "alice", "supersecret")

	cases := []struct {
		name string
		body map[string]string
		code int
	}{
		{"duplicate email", map[string]string{"email": "alice@example.com", "username": "other", "password": "supersecret"}, http.StatusConflict},
		{"duplicate username", map[string]string{"email": "other@example.com", "username": "alice", "password": "supersecret"}, http.StatusConflict},
		{"short password", map[string]string{"email": "b@example.com", "username": "bob", "password": "short"}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "not-an-email", "username": "bob", "password": "supersecret"}, http.StatusBadRequest},
		{"bad username", map[string]string{"email": "b@example.com", "username": "x", "password": "supersecret"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.request(t, http.MethodPost, "/api/auth/signup", tc.body, nil, "")
			require.Equal(t, tc.code, w.Code)
		})
	}
}

func TestAuthHandler_LoginAndLogout(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.signup(t, "alice@example.com", "alice", "supersecret")

	w := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "supersecret",
	}, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	require.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/api/auth/me", nil, cookies, "").Code)

	w = env.request(t, http.MethodPost, "/api/auth/logout", nil, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)

	// The server-side session is gone even if the old cookie is replayed.
	require.Equal(t, http.StatusUnauthorized, env.request(t, http.MethodGet, "/api/auth/me", nil, cookies, "").Code)
}

func TestAuthHandler_LoginDoesNotRevealWhichFieldFailed(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.signup(t, "alice@example.com", "alice", "supersecret")

	wrongPassword := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, nil, "")
	unknownEmail := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "supersecret",
	}, nil, "")

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	require.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestAuthHandler_SwitchOrganization(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.signup(t, "alice@example.com", "alice", "supersecret")

	w := env.request(t, http.MethodPost, "/api/organizations", map[string]string{
		"name": "Second Workspace",
	}, cookies, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var created dto.OrganizationDTO
	decodeJSON(t, w, &created)

	w = env.request(t, http.MethodPost, "/api/auth/switch-organization", map[string]uint64{
		"organization_id": created.ID,
	}, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Organization dto.OrganizationDTO `json:"organization"`
	}
	w = env.request(t, http.MethodGet, "/api/auth/me", nil, cookies, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &me)
	require.Equal(t, created.ID, me.Organization.ID)
}

func TestAuthHandler_SwitchToForeignOrganizationIs404(t *testing.T) {
	env := setupHandlerTestEnv(t)
	aliceCookies := env.signup(t, "alice@example.com", "alice", "supersecret")
	env.signup(t, "bob@example.com", "bobby", "supersecret")

	var foreign models.Tenant
	require.NoError(t, env.db.Where("slug LIKE ?", "bobby%").First(&foreign).Error)

	w := env.request(t, http.MethodPost, "/api/auth/switch-organization", map[string]uint64{
		"organization_id": foreign.ID,
	}, aliceCookies, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthHandler_SwitchOrganizationRequiresSession(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.signup(t, "alice@example.com", "alice", "supersecret")

	var user models.User
	require.NoError(t, env.db.Where("username = ?", "alice").First(&user).Error)
	var tenant models.Tenant
	require.NoError(t, env.db.First(&tenant).Error)

	// A user-associated API key still cannot switch: the active tenant
	// lives on the session.
	w := env.request(t, http.MethodPost, "/api/api-keys", map[string]string{
		"name": "ci",
	}, cookies, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var createdKey struct {
		Key string `json:"key"`
	}
	decodeJSON(t, w, &createdKey)

	w = env.request(t, http.MethodPost, "/api/auth/switch-organization", map[string]uint64{
		"organization_id": tenant.ID,
	}, nil, createdKey.Key)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_PasswordResetFlow(t *testing.T) {
	env := setupHandlerTestEnv(t)
	env.signup(t, "alice@example.com", "alice", "supersecret")

	// Request always reports success, known email or not.
	w := env.request(t, http.MethodPost, "/api/auth/password-reset/request", map[string]string{
		"email": "alice@example.com",
	}, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/password-reset/request", map[string]string{
		"email": "nobody@example.com",
	}, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var token models.PasswordResetToken
	require.NoError(t, env.db.First(&token).Error)

	w = env.request(t, http.MethodPost, "/api/auth/password-reset/confirm", map[string]string{
		"token":    token.Token,
		"password": "brand-new-password",
	}, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	// Old password is dead, new one works, token is single-use.
	w = env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "supersecret",
	}, nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "brand-new-password",
	}, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/password-reset/confirm", map[string]string{
		"token":    token.Token,
		"password": "yet-another-password",
	}, nil, "")
	require.Equal(t, http.StatusGone, w.Code)
}
