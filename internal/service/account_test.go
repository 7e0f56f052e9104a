package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bitwise74/finance-api/internal/model"
	"bitwise74/finance-api/internal/storage"
	"bitwise74/finance-api/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopFile struct {
	*bytes.Reader
}

func (nopFile) Close() error { return nil }

func avatarOf(content string) *validators.Avatar {
	return &validators.Avatar{
		File:        nopFile{bytes.NewReader([]byte(content))},
		Size:        int64(len(content)),
		ContentType: "image/png",
		Extension:   ".png",
	}
}

// failingBlob wraps a store and fails every delete
type failingBlob struct {
	storage.Blob
}

func (failingBlob) Delete(context.Context, string) error { return errors.New("disk on fire") }

func newTestAccounts(t *testing.T) (*Accounts, *Identity, string) {
	t.Helper()

	conn := newTestDB(t)
	dir := t.TempDir()

	blobs, err := storage.NewLocal(dir, "/uploads")
	require.NoError(t, err)

	return &Accounts{
		DB:       conn,
		Blobs:    blobs,
		Expenses: NewLedger[model.Expense](conn),
		Revenues: NewLedger[model.Revenue](conn),
	}, newTestIdentity(conn), dir
}

func callerOf(u *model.User) Caller {
	return Caller{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func TestMe(t *testing.T) {
	a, id, _ := newTestAccounts(t)
	u := mustRegister(t, id, "ann", "ann@example.com")

	me, err := a.Me(context.Background(), callerOf(u))
	require.NoError(t, err)
	assert.Equal(t, "ann", me.Username)

	_, err = a.Me(context.Background(), Caller{UserID: "gone"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAvatarLifecycle(t *testing.T) {
	ctx := context.Background()
	a, id, dir := newTestAccounts(t)
	c := callerOf(mustRegister(t, id, "ann", "ann@example.com"))

	first, err := a.SetAvatar(ctx, c, avatarOf("one"))
	require.NoError(t, err)
	firstKey, ok := a.Blobs.KeyFromURL(first)
	require.True(t, ok)
	assert.FileExists(t, filepath.Join(dir, firstKey))

	second, err := a.SetAvatar(ctx, c, avatarOf("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.NoFileExists(t, filepath.Join(dir, firstKey))

	me, err := a.Me(ctx, c)
	require.NoError(t, err)
	require.NotNil(t, me.AvatarURL)
	assert.Equal(t, second, *me.AvatarURL)

	removed, err := a.RemoveAvatar(ctx, c)
	require.NoError(t, err)
	assert.True(t, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	removed, err = a.RemoveAvatar(ctx, c)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestAvatarDeleteFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	a, id, _ := newTestAccounts(t)
	c := callerOf(mustRegister(t, id, "ann", "ann@example.com"))

	_, err := a.SetAvatar(ctx, c, avatarOf("one"))
	require.NoError(t, err)

	a.Blobs = failingBlob{a.Blobs}

	_, err = a.SetAvatar(ctx, c, avatarOf("two"))
	require.NoError(t, err)

	removed, err := a.RemoveAvatar(ctx, c)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestRemoveExternalAvatar(t *testing.T) {
	ctx := context.Background()
	a, id, _ := newTestAccounts(t)
	u := mustRegister(t, id, "ann", "ann@example.com")
	require.NoError(t, a.DB.Model(u).Update("avatar_url", "https://cdn.example.com/ann.png").Error)

	removed, err := a.RemoveAvatar(ctx, callerOf(u))
	require.NoError(t, err)
	assert.True(t, removed)

	me, err := a.Me(ctx, callerOf(u))
	require.NoError(t, err)
	assert.Nil(t, me.AvatarURL)
}

func TestDeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	a, id, dir := newTestAccounts(t)
	ann := mustRegister(t, id, "ann", "ann@example.com")
	bobUser := mustRegister(t, id, "bob", "bob@example.com")
	c := callerOf(ann)

	_, err := a.SetAvatar(ctx, c, avatarOf("img"))
	require.NoError(t, err)

	_, err = a.Expenses.Create(ctx, c, expense(5, date(2024, time.May, 1), "Food"))
	require.NoError(t, err)
	_, err = a.Revenues.Create(ctx, c, revenue(5, date(2024, time.May, 1), "Salary"))
	require.NoError(t, err)
	_, err = a.Expenses.Create(ctx, callerOf(bobUser), expense(7, date(2024, time.May, 1), "Food"))
	require.NoError(t, err)

	require.NoError(t, a.DB.Create(&model.PasswordResetToken{Email: ann.Email, Code: "123456", ExpiresAt: testNow}).Error)

	require.NoError(t, a.Delete(ctx, c))

	_, err = a.Me(ctx, c)
	assert.ErrorIs(t, err, ErrUserNotFound)

	for _, m := range []any{&model.Expense{}, &model.Revenue{}} {
		var n int64
		require.NoError(t, a.DB.Model(m).Where("user_id = ?", ann.ID).Count(&n).Error)
		assert.Zero(t, n)
	}

	var tokens int64
	require.NoError(t, a.DB.Model(&model.PasswordResetToken{}).Count(&tokens).Error)
	assert.Zero(t, tokens)

	left, err := a.Expenses.List(ctx, callerOf(bobUser), nil)
	require.NoError(t, err)
	assert.Len(t, left, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
