package model

import "time"

// PasswordResetToken holds the emailed code of a pending password reset.
// There is at most one per email, a new request replaces the old one.
type PasswordResetToken struct {
	ID        int       `gorm:"primaryKey;autoIncrement"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Code      string    `gorm:"index;size:6;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// TwoFactorSetupToken holds an emailed one-time code used instead of a
// TOTP code. There is at most one per username.
type TwoFactorSetupToken struct {
	ID        int       `gorm:"primaryKey;autoIncrement"`
	Username  string    `gorm:"uniqueIndex;not null"`
	Email     string    `gorm:"not null"`
	Code      string    `gorm:"size:6;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (t *TwoFactorSetupToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
