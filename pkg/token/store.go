package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"laptopstore/models"
)

// Store is the durable, authoritative record of issued tokens. Every method
// is a single SQL statement so per-token and per-identity atomicity comes
// from the database; no in-process lock is held across the I/O.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Put inserts a new token record. A token-hash collision yields
// ErrDuplicateToken so the issuer can retry with a fresh ID.
func (s *Store) Put(ctx context.Context, rec *models.AuthToken) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get fetches the record for a raw token value.
func (s *Store) Get(ctx context.Context, tokenValue string) (*models.AuthToken, error) {
	var rec models.AuthToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", HashValue(tokenValue)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &rec, nil
}

// ListValidByUsername returns the identity's live sessions as of the given
// instant, oldest issued first.
func (s *Store) ListValidByUsername(ctx context.Context, username string, asOf time.Time) ([]models.AuthToken, error) {
	var recs []models.AuthToken
	err := s.db.WithContext(ctx).
		Where("username = ? AND revoked = ? AND expires_at > ?", username, false, asOf).
		Order("issued_at asc, id asc").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return recs, nil
}

// Revoke marks the token for a raw value revoked. Idempotent: the revoked=false
// guard makes a second call (or a concurrent one) a no-op, so revoked_at is
// only ever written once.
func (s *Store) Revoke(ctx context.Context, tokenValue string, at time.Time) error {
	return s.revokeWhere(ctx, "token_hash = ?", HashValue(tokenValue), at)
}

// RevokeByID revokes by record ID. Used by the issuer's eviction path, which
// holds record IDs rather than raw token values.
func (s *Store) RevokeByID(ctx context.Context, id string, at time.Time) error {
	return s.revokeWhere(ctx, "id = ?", id, at)
}

// RevokeAllByUsername revokes every currently non-revoked record for the
// identity in one statement.
func (s *Store) RevokeAllByUsername(ctx context.Context, username string, at time.Time) error {
	return s.revokeWhere(ctx, "username = ?", username, at)
}

func (s *Store) revokeWhere(ctx context.Context, cond string, arg any, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.AuthToken{}).
		Where(cond, arg).Where("revoked = ?", false).
		Updates(map[string]any{"revoked": true, "revoked_at": at}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteExpiredBefore physically removes records whose expiry predates the
// cutoff and reports how many went.
func (s *Store) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&models.AuthToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected, nil
}

// isUniqueConstraintError matches unique-violation messages across the
// Postgres and sqlite dialects without importing driver error types.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "UNIQUE constraint") ||
		strings.Contains(s, "already exists")
}
