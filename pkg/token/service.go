package token

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"laptopstore/models"
)

const issueRetries = 3

// Session pairs a persisted token record with the raw signed value handed to
// the client. The raw value exists only here and in the client's hands.
type Session struct {
	Record models.AuthToken
	Value  string
}

// Identity is the result of a successful validation: who the token belongs
// to and the role snapshotted when it was issued.
type Identity struct {
	Username string
	Role     models.Role
}

// Service issues, validates and revokes access tokens against a Signer and
// the durable Store. It keeps no per-request state and never caches a
// validity verdict, so a revocation is observable by the very next Validate.
type Service struct {
	signer     *Signer
	store      *Store
	ttl        time.Duration
	maxPerUser int
	log        *zap.Logger
}

func NewService(signer *Signer, store *Store, ttl time.Duration, maxPerUser int, log *zap.Logger) *Service {
	return &Service{signer: signer, store: store, ttl: ttl, maxPerUser: maxPerUser, log: log}
}

// TTL returns the configured access-token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue creates a session for the user, enforcing the per-identity cap by
// revoking the oldest-issued live sessions first. The list/revoke/insert
// sequence is not one transaction; concurrent logins can transiently
// overshoot the cap by at most the number of racing issuances minus one, and
// the next issuance converges the count.
func (s *Service) Issue(ctx context.Context, user *models.User, ip, userAgent string) (*Session, error) {
	now := time.Now()

	valid, err := s.store.ListValidByUsername(ctx, user.Username, now)
	if err != nil {
		return nil, err
	}
	if excess := len(valid) - s.maxPerUser + 1; excess > 0 {
		for _, old := range valid[:excess] {
			if err := s.store.RevokeByID(ctx, old.ID, now); err != nil {
				return nil, err
			}
			s.log.Info("evicted oldest session",
				zap.String("username", user.Username),
				zap.String("token_id", old.ID),
				zap.Time("issued_at", old.IssuedAt))
		}
	}

	expiresAt := now.Add(s.ttl)
	for attempt := 0; attempt < issueRetries; attempt++ {
		id := uuid.NewString()
		value, err := s.signer.Sign(id, user.Username, user.Role, now, expiresAt)
		if err != nil {
			return nil, err
		}
		rec := models.AuthToken{
			ID:        id,
			Username:  user.Username,
			Role:      user.Role,
			TokenHash: HashValue(value),
			IssuedAt:  now,
			ExpiresAt: expiresAt,
			IPAddress: ip,
			UserAgent: userAgent,
		}
		err = s.store.Put(ctx, &rec)
		if errors.Is(err, ErrDuplicateToken) {
			s.log.Warn("token value collision, retrying", zap.String("token_id", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Session{Record: rec, Value: value}, nil
	}
	return nil, ErrStoreUnavailable
}

// Validate runs the two-stage check: signature + claimed expiry first (no
// I/O), then the store record must exist, be unrevoked and unexpired. The
// record's role snapshot is authoritative; the claim's role is only a
// cheap pre-filter. All rejections collapse to ErrInvalidToken.
func (s *Service) Validate(ctx context.Context, tokenString string) (*Identity, error) {
	if _, err := s.signer.Verify(tokenString); err != nil {
		return nil, ErrInvalidToken
	}

	rec, err := s.store.Get(ctx, tokenString)
	if errors.Is(err, ErrTokenNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		s.log.Error("token lookup failed", zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	if !rec.Valid(time.Now()) {
		return nil, ErrInvalidToken
	}
	return &Identity{Username: rec.Username, Role: rec.Role}, nil
}

// RevokeOne terminates the session behind the given token value. Idempotent;
// revoking an unknown or already-revoked token is a no-op.
func (s *Service) RevokeOne(ctx context.Context, tokenString string) error {
	return s.store.Revoke(ctx, tokenString, time.Now())
}

// RevokeAll terminates every live session of the identity. Tokens issued
// after this call are unaffected.
func (s *Service) RevokeAll(ctx context.Context, username string) error {
	return s.store.RevokeAllByUsername(ctx, username, time.Now())
}

// Sessions lists the identity's live sessions, oldest issued first.
func (s *Service) Sessions(ctx context.Context, username string) ([]models.AuthToken, error) {
	return s.store.ListValidByUsername(ctx, username, time.Now())
}
