package models

import "time"

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User model
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Username       string `gorm:"size:255;not null;uniqueIndex"`
	Email          string `gorm:"size:255"`
	HashedPassword []byte `gorm:"not null"`
	Role           Role   `gorm:"size:16;not null;default:USER"`
	Enabled        bool   `gorm:"not null;default:true"`
	LastLoginAt    *time.Time
}
