package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitwise74/finance-api/internal/model"
	"bitwise74/finance-api/pkg/security"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const twoFactorCodeTTL = 10 * time.Minute

// TwoFactor checks second factor codes, either from an authenticator app
// or emailed on request
type TwoFactor struct {
	DB     *gorm.DB
	Mailer Mailer
	Issuer string
	Now    func() time.Time
}

func NewTwoFactor(db *gorm.DB, m Mailer, issuer string) *TwoFactor {
	return &TwoFactor{DB: db, Mailer: m, Issuer: issuer, Now: time.Now}
}

// Verify checks code for user and marks 2FA as enabled on success. The
// returned value is what Sessions.Issue requires. An emailed code also
// enrolls users that never got a TOTP secret, so the authenticator app can
// be used on later logins.
func (s *TwoFactor) Verify(ctx context.Context, user *model.User, code string, useEmailOTP bool) (*Verified, error) {
	if !security.IsCode(code) {
		return nil, ErrMalformedCode
	}

	if useEmailOTP {
		if err := s.consumeEmailCode(ctx, user.Username, code); err != nil {
			return nil, err
		}

		if !hasSecret(user) {
			if err := provisionTOTP(ctx, s.DB, s.Issuer, user); err != nil {
				return nil, err
			}
		}
	} else {
		if !hasSecret(user) {
			return nil, ErrTwoFactorNotProvisioned
		}

		if err := s.checkTOTP(*user.TwoFactorSecret, code); err != nil {
			return nil, err
		}
	}

	if !user.TwoFactorEnabled {
		err := s.DB.WithContext(ctx).
			Model(&model.User{}).
			Where("id = ?", user.ID).
			Update("two_factor_enabled", true).
			Error
		if err != nil {
			return nil, fmt.Errorf("failed to enable two-factor, %w", err)
		}

		user.TwoFactorEnabled = true
	}

	return &Verified{user: user}, nil
}

func hasSecret(u *model.User) bool {
	return u.TwoFactorSecret != nil && *u.TwoFactorSecret != ""
}

// provisionTOTP stores a fresh secret on user. When another request got
// there first its secret is loaded instead.
func provisionTOTP(ctx context.Context, db *gorm.DB, issuer string, user *model.User) error {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: user.Username,
	})
	if err != nil {
		return fmt.Errorf("failed to generate totp secret, %w", err)
	}

	db = db.WithContext(ctx)

	res := db.Model(&model.User{}).
		Where("id = ? AND two_factor_secret IS NULL", user.ID).
		Update("two_factor_secret", key.Secret())
	if res.Error != nil {
		return fmt.Errorf("failed to store totp secret, %w", res.Error)
	}

	if res.RowsAffected == 1 {
		secret := key.Secret()
		user.TwoFactorSecret = &secret
		return nil
	}

	if err := db.First(user, "id = ?", user.ID).Error; err != nil {
		return fmt.Errorf("failed to reload user, %w", err)
	}

	if !hasSecret(user) {
		return errors.New("totp secret missing after provisioning")
	}

	zap.L().Debug("Reused concurrently provisioned totp secret", zap.String("username", user.Username))
	return nil
}

// 30 second steps, one step of clock drift tolerated either way
func (s *TwoFactor) checkTOTP(secret, code string) error {
	ok, err := totp.ValidateCustom(code, secret, s.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !ok {
		return ErrCodeMismatch
	}

	return nil
}

// consumeEmailCode deletes the outstanding token only if it still holds
// code, so two concurrent submissions can't both succeed
func (s *TwoFactor) consumeEmailCode(ctx context.Context, username, code string) error {
	db := s.DB.WithContext(ctx)

	var token model.TwoFactorSetupToken
	err := db.Where("username = ?", username).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoCodeRequested
		}

		return fmt.Errorf("failed to fetch two-factor token, %w", err)
	}

	if token.Expired(s.Now()) {
		return ErrCodeExpired
	}

	if token.Code != code {
		return ErrCodeMismatch
	}

	res := db.Where("id = ? AND code = ?", token.ID, code).Delete(&model.TwoFactorSetupToken{})
	if res.Error != nil {
		return fmt.Errorf("failed to consume two-factor token, %w", res.Error)
	}

	if res.RowsAffected != 1 {
		return ErrNoCodeRequested
	}

	return nil
}

// SendEmailCode replaces any outstanding emailed code of user with a new
// one and mails it
func (s *TwoFactor) SendEmailCode(ctx context.Context, user *model.User) error {
	if user.Email == "" {
		return ErrNoEmail
	}

	code, err := security.NewCode()
	if err != nil {
		return err
	}

	token := &model.TwoFactorSetupToken{
		Username:  user.Username,
		Email:     user.Email,
		Code:      code,
		ExpiresAt: s.Now().Add(twoFactorCodeTTL),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", user.Username).Delete(&model.TwoFactorSetupToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete previous two-factor token, %w", err)
		}

		if err := tx.Create(token).Error; err != nil {
			return fmt.Errorf("failed to store two-factor token, %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := s.Mailer.SendTwoFactorCode(user.Email, code); err != nil {
		return fmt.Errorf("failed to mail two-factor code, %w", err)
	}

	return nil
}
