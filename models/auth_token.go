package models

import "time"

// AuthToken stores the lifecycle record of one issued access token. The raw
// token value never hits the database; only its SHA-256 hash is stored. The
// username and role are snapshotted at issuance so revocation and validation
// never need a live join against the users table.
type AuthToken struct {
	ID        string `gorm:"primaryKey;size:36"` // uuid, doubles as the jti claim
	CreatedAt time.Time
	Username  string    `gorm:"size:255;not null;index"`
	Role      Role      `gorm:"size:16;not null"`
	TokenHash string    `gorm:"size:64;not null;uniqueIndex"`
	IssuedAt  time.Time `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Revoked   bool      `gorm:"not null;default:false"`
	RevokedAt *time.Time
	// Audit metadata only; never consulted by validation.
	IPAddress string `gorm:"size:64"`
	UserAgent string `gorm:"size:512"`
}

// Valid reports whether the record represents a live session at now.
func (t *AuthToken) Valid(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
