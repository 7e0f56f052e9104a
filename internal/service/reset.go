package service

import (
	"context"
	"fmt"
	"time"

	"bitwise74/finance-api/internal/apperr"
	"bitwise74/finance-api/internal/model"
	"bitwise74/finance-api/pkg/security"
	"bitwise74/finance-api/validators"

	"gorm.io/gorm"
)

const resetCodeTTL = 15 * time.Minute

type PasswordReset struct {
	DB     *gorm.DB
	Hasher security.PasswordHasher
	Mailer Mailer
	Now    func() time.Time
}

func NewPasswordReset(db *gorm.DB, h security.PasswordHasher, m Mailer) *PasswordReset {
	return &PasswordReset{DB: db, Hasher: h, Mailer: m, Now: time.Now}
}

// RequestReset mails a fresh reset code to email, replacing any earlier one
func (s *PasswordReset) RequestReset(ctx context.Context, email string) error {
	email = validators.NormalizeEmail(email)
	if err := validators.EmailValidator(email); err != nil {
		return apperr.Invalid("Invalid email", map[string]string{"email": err.Error()})
	}

	db := s.DB.WithContext(ctx)

	found, err := exists(db.Model(&model.User{}).Where("email = ?", email))
	if err != nil {
		return fmt.Errorf("failed to look up email, %w", err)
	}
	if !found {
		return ErrEmailNotFound
	}

	code, err := security.NewCode()
	if err != nil {
		return err
	}

	token := &model.PasswordResetToken{
		Email:     email,
		Code:      code,
		ExpiresAt: s.Now().Add(resetCodeTTL),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&model.PasswordResetToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete previous reset token, %w", err)
		}

		if err := tx.Create(token).Error; err != nil {
			return fmt.Errorf("failed to store reset token, %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := s.Mailer.SendPasswordReset(email, code); err != nil {
		return fmt.Errorf("failed to mail reset code, %w", err)
	}

	return nil
}

// CompleteReset sets a new password if code is a live reset code issued
// for email. The code can only be used once.
func (s *PasswordReset) CompleteReset(ctx context.Context, email, code, newPassword string) error {
	email = validators.NormalizeEmail(email)

	if err := validators.PasswordValidator(newPassword); err != nil {
		return apperr.Invalid("Invalid password", map[string]string{"newPassword": err.Error()})
	}

	if !security.IsCode(code) {
		return ErrInvalidCode
	}

	token, err := s.lookup(ctx, email, code)
	if err != nil {
		return err
	}

	if token.Expired(s.Now()) {
		return ErrCodeExpired
	}

	if token.Email != email {
		return ErrEmailMismatch
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND code = ?", token.ID, code).Delete(&model.PasswordResetToken{})
		if res.Error != nil {
			return fmt.Errorf("failed to consume reset token, %w", res.Error)
		}

		// Lost the race against a concurrent reset with the same code
		if res.RowsAffected != 1 {
			return ErrInvalidCode
		}

		res = tx.Model(&model.User{}).Where("email = ?", email).Update("password_hash", hash)
		if res.Error != nil {
			return fmt.Errorf("failed to update password, %w", res.Error)
		}

		if res.RowsAffected != 1 {
			return ErrEmailNotFound
		}

		return nil
	})
}

// lookup finds the token holding code. Codes are short so two emails may
// hold the same one at once, the one issued for email wins then.
func (s *PasswordReset) lookup(ctx context.Context, email, code string) (*model.PasswordResetToken, error) {
	var tokens []model.PasswordResetToken

	err := s.DB.WithContext(ctx).Where("code = ?", code).Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reset token, %w", err)
	}

	if len(tokens) == 0 {
		return nil, ErrInvalidCode
	}

	for i := range tokens {
		if tokens[i].Email == email {
			return &tokens[i], nil
		}
	}

	return &tokens[0], nil
}
