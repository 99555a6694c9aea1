package token

import "errors"

// Error taxonomy for the token subsystem. Handlers map these onto HTTP
// statuses; anything else bubbling out of this package is a 500.
var (
	// ErrInvalidToken covers malformed, forged, expired and revoked tokens
	// alike so callers cannot distinguish the cases.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrTokenNotFound is returned by the store when no record matches.
	ErrTokenNotFound = errors.New("token not found")

	// ErrDuplicateToken is returned by the store on a token value collision.
	// The issuer retries with a fresh ID; callers never see this.
	ErrDuplicateToken = errors.New("duplicate token value")

	// ErrStoreUnavailable wraps database failures, including timeouts.
	ErrStoreUnavailable = errors.New("token store unavailable")
)
