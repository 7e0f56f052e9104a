package service

import (
	"context"
	"errors"
	"fmt"

	"bitwise74/finance-api/internal/model"
	"bitwise74/finance-api/internal/storage"
	"bitwise74/finance-api/validators"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Accounts manages the caller's own user record and avatar
type Accounts struct {
	DB       *gorm.DB
	Blobs    storage.Blob
	Expenses *Ledger[model.Expense, *model.Expense]
	Revenues *Ledger[model.Revenue, *model.Revenue]
}

func (s *Accounts) Me(ctx context.Context, caller Caller) (*model.User, error) {
	var user model.User

	err := s.DB.WithContext(ctx).Where("id = ?", caller.UserID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	return &user, nil
}

// Delete closes the caller's account together with everything it owns
func (s *Accounts) Delete(ctx context.Context, caller Caller) error {
	user, err := s.Me(ctx, caller)
	if err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Expenses.DeleteAllFor(tx, user.ID); err != nil {
			return err
		}

		if err := s.Revenues.DeleteAllFor(tx, user.ID); err != nil {
			return err
		}

		if err := tx.Where("email = ?", user.Email).Delete(&model.PasswordResetToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete reset tokens, %w", err)
		}

		if err := tx.Where("username = ?", user.Username).Delete(&model.TwoFactorSetupToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete two-factor tokens, %w", err)
		}

		if err := tx.Delete(user).Error; err != nil {
			return fmt.Errorf("failed to delete user, %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.dropBlob(ctx, user.AvatarURL)
	return nil
}

// SetAvatar stores a validated upload as the caller's new avatar and
// returns its URL. The previous blob is removed first.
func (s *Accounts) SetAvatar(ctx context.Context, caller Caller, avatar *validators.Avatar) (string, error) {
	user, err := s.Me(ctx, caller)
	if err != nil {
		return "", err
	}

	s.dropBlob(ctx, user.AvatarURL)

	name, err := gonanoid.Generate(idCharset, 24)
	if err != nil {
		return "", fmt.Errorf("failed to generate avatar key, %w", err)
	}

	url, err := s.Blobs.Put(ctx, name+avatar.Extension, avatar.File, avatar.Size, avatar.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to store avatar, %w", err)
	}

	if err := s.DB.WithContext(ctx).Model(user).Update("avatar_url", url).Error; err != nil {
		s.dropBlob(ctx, &url)
		return "", fmt.Errorf("failed to save avatar url, %w", err)
	}

	return url, nil
}

// RemoveAvatar clears the caller's avatar. It reports false when there was
// none to begin with.
func (s *Accounts) RemoveAvatar(ctx context.Context, caller Caller) (bool, error) {
	user, err := s.Me(ctx, caller)
	if err != nil {
		return false, err
	}

	if user.AvatarURL == nil || *user.AvatarURL == "" {
		return false, nil
	}

	s.dropBlob(ctx, user.AvatarURL)

	if err := s.DB.WithContext(ctx).Model(user).Update("avatar_url", nil).Error; err != nil {
		return false, fmt.Errorf("failed to clear avatar url, %w", err)
	}

	return true, nil
}

// dropBlob deletes a blob this service stored. Failures only get logged,
// a leftover file must never block the caller.
func (s *Accounts) dropBlob(ctx context.Context, url *string) {
	if url == nil || *url == "" {
		return
	}

	key, ok := s.Blobs.KeyFromURL(*url)
	if !ok {
		return
	}

	if err := s.Blobs.Delete(ctx, key); err != nil {
		zap.L().Warn("Failed to delete avatar blob", zap.Error(err), zap.String("key", key))
	}
}
