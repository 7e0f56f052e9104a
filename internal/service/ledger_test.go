package service

import (
	"context"
	"testing"
	"time"

	"bitwise74/finance-api/internal/apperr"
	"bitwise74/finance-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = Caller{UserID: "alice-id", Username: "alice", Role: model.RoleUser}
	bob   = Caller{UserID: "bob-id", Username: "bob", Role: model.RoleUser}
)

func expense(amount float64, d model.Date, category string) *model.Expense {
	return &model.Expense{
		Entry:       model.Entry{Amount: amount, Date: d},
		Category:    category,
		Description: category + " stuff",
	}
}

func revenue(amount float64, d model.Date, source string) *model.Revenue {
	return &model.Revenue{
		Entry:  model.Entry{Amount: amount, Date: d},
		Source: source,
	}
}

func TestLedgerCreateStampsOwner(t *testing.T) {
	l := NewLedger[model.Expense](newTestDB(t))

	e := expense(10, date(2024, time.May, 1), "Food")
	e.UserID = bob.UserID

	created, err := l.Create(context.Background(), alice, e)
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, created.UserID)
	assert.NotEmpty(t, created.ID)

	got, err := l.Get(context.Background(), alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, "2024-05-01", got.Date.String())
}

func TestLedgerCreateValidates(t *testing.T) {
	l := NewLedger[model.Revenue](newTestDB(t))

	_, err := l.Create(context.Background(), alice, revenue(0, date(2024, time.May, 1), "Salary"))
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = l.Create(context.Background(), alice, revenue(5, date(2024, time.May, 1), ""))
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestLedgerOwnership(t *testing.T) {
	ctx := context.Background()
	l := NewLedger[model.Expense](newTestDB(t))

	rec, err := l.Create(ctx, alice, expense(10, date(2024, time.May, 1), "Food"))
	require.NoError(t, err)

	_, err = l.Get(ctx, bob, rec.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = l.Update(ctx, bob, rec.ID, expense(99, date(2024, time.May, 2), "Hacked"))
	assert.ErrorIs(t, err, ErrNotOwner)

	assert.ErrorIs(t, l.Delete(ctx, bob, rec.ID), ErrNotOwner)

	got, err := l.Get(ctx, alice, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Amount)

	_, err = l.Get(ctx, alice, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestLedgerListIsolation(t *testing.T) {
	ctx := context.Background()
	l := NewLedger[model.Revenue](newTestDB(t))

	for _, c := range []Caller{alice, bob, alice} {
		_, err := l.Create(ctx, c, revenue(100, date(2024, time.May, 1), "Salary"))
		require.NoError(t, err)
	}

	list, err := l.List(ctx, alice, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	for _, r := range list {
		assert.Equal(t, alice.UserID, r.UserID)
	}

	list, err = l.List(ctx, Caller{UserID: "nobody"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestLedgerListRangeInclusive(t *testing.T) {
	ctx := context.Background()
	l := NewLedger[model.Expense](newTestDB(t))

	for _, d := range []model.Date{
		date(2024, time.April, 30),
		date(2024, time.May, 1),
		date(2024, time.May, 15),
		date(2024, time.May, 31),
		date(2024, time.June, 1),
	} {
		_, err := l.Create(ctx, alice, expense(1, d, "Food"))
		require.NoError(t, err)
	}

	start, end := date(2024, time.May, 1), date(2024, time.May, 31)
	r, err := NewDateRange(&start, &end)
	require.NoError(t, err)

	list, err := l.List(ctx, alice, r)
	require.NoError(t, err)
	require.Len(t, list, 3)

	// Newest first
	assert.Equal(t, "2024-05-31", list[0].Date.String())
	assert.Equal(t, "2024-05-15", list[1].Date.String())
	assert.Equal(t, "2024-05-01", list[2].Date.String())
}

func TestNewDateRange(t *testing.T) {
	start, end := date(2024, time.May, 1), date(2024, time.May, 31)

	r, err := NewDateRange(nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, r)

	_, err = NewDateRange(&start, nil)
	assert.ErrorIs(t, err, ErrRangeOneEnded)

	_, err = NewDateRange(nil, &end)
	assert.ErrorIs(t, err, ErrRangeOneEnded)

	_, err = NewDateRange(&end, &start)
	assert.ErrorIs(t, err, ErrRangeInverted)

	r, err = NewDateRange(&start, &start)
	require.NoError(t, err)
	assert.Equal(t, r.Start, r.End)
}

func TestLedgerUpdateKeepsOwnerAndID(t *testing.T) {
	ctx := context.Background()
	l := NewLedger[model.Expense](newTestDB(t))

	rec, err := l.Create(ctx, alice, expense(10, date(2024, time.May, 1), "Food"))
	require.NoError(t, err)

	upd := expense(25.5, date(2024, time.May, 3), "Travel")
	upd.ID = "forged"
	upd.UserID = bob.UserID

	got, err := l.Update(ctx, alice, rec.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, alice.UserID, got.UserID)

	stored, err := l.Get(ctx, alice, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.5, stored.Amount)
	assert.Equal(t, "Travel", stored.Category)
	assert.Equal(t, "2024-05-03", stored.Date.String())

	_, err = l.Update(ctx, alice, rec.ID, expense(-1, date(2024, time.May, 3), "Travel"))
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestLedgerDelete(t *testing.T) {
	ctx := context.Background()
	l := NewLedger[model.Expense](newTestDB(t))

	rec, err := l.Create(ctx, alice, expense(10, date(2024, time.May, 1), "Food"))
	require.NoError(t, err)

	require.NoError(t, l.Delete(ctx, alice, rec.ID))

	_, err = l.Get(ctx, alice, rec.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	assert.ErrorIs(t, l.Delete(ctx, alice, rec.ID), ErrRecordNotFound)
}
