package constants

const (
	// AuthTokenCookieName is the cookie carrying the session token when no
	// Authorization header is present.
	AuthTokenCookieName = "auth_token"

	// ContextIdentityKey is the gin context key holding the resolved
	// caller identity.
	ContextIdentityKey = "identity"

	// ContextRequestIDKey is the gin context key holding the request id.
	ContextRequestIDKey = "request_id"

	// MaxLineQuantity caps a single cart line; larger requests are rejected
	// before reaching the backend.
	MaxLineQuantity = 99
)
