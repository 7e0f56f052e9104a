package service

import (
	"context"
	"errors"
	"fmt"

	"bitwise74/finance-api/internal/apperr"
	"bitwise74/finance-api/internal/model"

	"gorm.io/gorm"
)

// Caller is the authenticated identity a request acts as
type Caller struct {
	UserID   string
	Username string
	Role     string
}

// Record is implemented by the pointer types of every ledger kind
type Record[T any] interface {
	*T
	Owner() string
	SetOwner(id string)
	SetID(id string)
	Validate() error
	Apply(update *T)
}

// DateRange is a closed interval of calendar dates
type DateRange struct {
	Start model.Date
	End   model.Date
}

// NewDateRange builds a range from optional query bounds. No bounds means
// no filter, a single bound is rejected.
func NewDateRange(start, end *model.Date) (*DateRange, error) {
	if start == nil && end == nil {
		return nil, nil
	}

	if start == nil || end == nil {
		return nil, ErrRangeOneEnded
	}

	if start.After(*end) {
		return nil, ErrRangeInverted
	}

	return &DateRange{Start: *start, End: *end}, nil
}

// Ledger stores one kind of record, every operation scoped to its owner
type Ledger[T any, P Record[T]] struct {
	DB *gorm.DB
}

func NewLedger[T any, P Record[T]](db *gorm.DB) *Ledger[T, P] {
	return &Ledger[T, P]{DB: db}
}

func (l *Ledger[T, P]) Create(ctx context.Context, caller Caller, rec P) (P, error) {
	if err := rec.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err.Error(), err)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	rec.SetID(id)
	rec.SetOwner(caller.UserID)

	if err := l.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create record, %w", err)
	}

	return rec, nil
}

// List returns the caller's records, newest first
func (l *Ledger[T, P]) List(ctx context.Context, caller Caller, r *DateRange) ([]T, error) {
	q := l.DB.WithContext(ctx).Where("user_id = ?", caller.UserID)

	if r != nil {
		q = q.Where("date >= ? AND date <= ?", r.Start, r.End)
	}

	out := []T{}
	if err := q.Order("date desc").Order("created_at desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list records, %w", err)
	}

	return out, nil
}

func (l *Ledger[T, P]) Get(ctx context.Context, caller Caller, id string) (P, error) {
	return l.owned(l.DB.WithContext(ctx), caller, id)
}

// Update copies the mutable fields of update onto the stored record. The
// owner and id never change.
func (l *Ledger[T, P]) Update(ctx context.Context, caller Caller, id string, update P) (P, error) {
	if err := update.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err.Error(), err)
	}

	db := l.DB.WithContext(ctx)

	rec, err := l.owned(db, caller, id)
	if err != nil {
		return nil, err
	}

	rec.Apply((*T)(update))

	if err := db.Save(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to update record, %w", err)
	}

	return rec, nil
}

func (l *Ledger[T, P]) Delete(ctx context.Context, caller Caller, id string) error {
	db := l.DB.WithContext(ctx)

	rec, err := l.owned(db, caller, id)
	if err != nil {
		return err
	}

	if err := db.Delete(rec).Error; err != nil {
		return fmt.Errorf("failed to delete record, %w", err)
	}

	return nil
}

// DeleteAllFor removes every record of userID inside tx
func (l *Ledger[T, P]) DeleteAllFor(tx *gorm.DB, userID string) error {
	if err := tx.Where("user_id = ?", userID).Delete(P(new(T))).Error; err != nil {
		return fmt.Errorf("failed to delete records of user, %w", err)
	}

	return nil
}

// owned loads id and checks it belongs to caller. A missing record is
// NotFound, someone else's record is Forbidden.
func (l *Ledger[T, P]) owned(db *gorm.DB, caller Caller, id string) (P, error) {
	rec := P(new(T))

	if err := db.Where("id = ?", id).First(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}

		return nil, fmt.Errorf("failed to fetch record, %w", err)
	}

	if rec.Owner() != caller.UserID {
		return nil, ErrNotOwner
	}

	return rec, nil
}
