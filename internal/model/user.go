package model

import (
	"errors"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           string  `gorm:"primaryKey;size:16" json:"id"`
	Username     string  `gorm:"uniqueIndex;not null" json:"username"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash *string `json:"-"` // nil for accounts created through OAuth
	Role         string  `gorm:"not null;default:USER" json:"role"`
	Provider     string  `json:"provider"`
	ProviderID   string  `json:"-"`

	TwoFactorSecret  *string `json:"-"`
	TwoFactorEnabled bool    `gorm:"default:false" json:"twoFactorEnabled"`
	AvatarURL        *string `json:"avatarUrl"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

var (
	ErrUserNoUsername      = errors.New("user has no username")
	ErrUserNoEmail         = errors.New("user has no email")
	ErrUserNoPassword      = errors.New("local user has no password hash")
	ErrUserNoTOTPSecret    = errors.New("two-factor enabled without a secret")
	ErrUserUnknownRole     = errors.New("unknown role")
	ErrUserUnknownProvider = errors.New("unknown auth provider")
)

// Validate checks the invariants a user must hold before being persisted
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrUserNoUsername
	}

	if u.Email == "" {
		return ErrUserNoEmail
	}

	switch u.Provider {
	case ProviderLocal:
		if u.PasswordHash == nil || *u.PasswordHash == "" {
			return ErrUserNoPassword
		}
	case ProviderGoogle:
	default:
		return ErrUserUnknownProvider
	}

	if u.Role != RoleUser && u.Role != RoleAdmin {
		return ErrUserUnknownRole
	}

	if u.TwoFactorEnabled && (u.TwoFactorSecret == nil || *u.TwoFactorSecret == "") {
		return ErrUserNoTOTPSecret
	}

	return nil
}

// HasPassword reports whether the user can log in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
