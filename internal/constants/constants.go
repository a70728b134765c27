package constants

const (
	// ContextKeyAuth is the gin context key holding the resolved authorization context.
	ContextKeyAuth = "auth_context"
	// ContextKeyRequestID is the gin context key holding the request ID.
	ContextKeyRequestID = "request_id"

	// SessionCookieName is the name of the signed cookie carrying the session token.
	SessionCookieName = "teamtodo_session"
	// SessionTokenKey is the key under which the opaque session token is stored in the cookie.
	SessionTokenKey = "session_token"

	// APIKeyPrefix marks raw API keys so they are distinguishable from
	// session tokens in logs without revealing the secret.
	APIKeyPrefix = "ttk_"
	// APIKeySecretLength is the number of random alphanumerics after the prefix.
	APIKeySecretLength = 32

	MinPasswordLength = 8
	MinUsernameLength = 3
	MaxUsernameLength = 30

	// InvitationLifetimeDays is fixed: invitations expire 7 days after creation.
	InvitationLifetimeDays = 7

	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 100
)
