package model

import (
	"errors"
	"time"
	"unicode/utf8"
)

const MaxLabelLength = 50

var (
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrLabelEmpty        = errors.New("label is required")
	ErrLabelTooLong      = errors.New("label cannot exceed 50 characters")
	ErrDescriptionEmpty  = errors.New("description is required")
	ErrDateMissing       = errors.New("date is required")
)

// Entry is the part shared by every ledger record
type Entry struct {
	ID        string    `gorm:"primaryKey;size:16" json:"id"`
	UserID    string    `gorm:"index;not null" json:"userId"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Date      Date      `gorm:"index;not null" json:"date"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (e *Entry) validate() error {
	if e.Amount <= 0 {
		return ErrAmountNotPositive
	}

	if e.Date.IsZero() {
		return ErrDateMissing
	}

	return nil
}

func validateLabel(s string) error {
	if s == "" {
		return ErrLabelEmpty
	}

	if utf8.RuneCountInString(s) > MaxLabelLength {
		return ErrLabelTooLong
	}

	return nil
}

type Expense struct {
	Entry
	Category    string `gorm:"size:50;not null" json:"category"`
	Description string `gorm:"not null" json:"description"`
}

type Revenue struct {
	Entry
	Source string `gorm:"size:50;not null" json:"source"`
}

func (e *Expense) Owner() string         { return e.UserID }
func (e *Expense) SetOwner(id string)    { e.UserID = id }
func (e *Expense) SetID(id string)       { e.ID = id }
func (e *Expense) EntryDate() Date       { return e.Date }
func (e *Expense) LedgerAmount() float64 { return e.Amount }

func (e *Expense) Validate() error {
	if err := e.validate(); err != nil {
		return err
	}

	if err := validateLabel(e.Category); err != nil {
		return err
	}

	if e.Description == "" {
		return ErrDescriptionEmpty
	}

	return nil
}

// Apply copies the mutable fields of u. Identity and owner are left alone.
func (e *Expense) Apply(u *Expense) {
	e.Amount = u.Amount
	e.Category = u.Category
	e.Description = u.Description
	e.Date = u.Date
}

func (r *Revenue) Owner() string         { return r.UserID }
func (r *Revenue) SetOwner(id string)    { r.UserID = id }
func (r *Revenue) SetID(id string)       { r.ID = id }
func (r *Revenue) EntryDate() Date       { return r.Date }
func (r *Revenue) LedgerAmount() float64 { return r.Amount }

func (r *Revenue) Validate() error {
	if err := r.validate(); err != nil {
		return err
	}

	return validateLabel(r.Source)
}

func (r *Revenue) Apply(u *Revenue) {
	r.Amount = u.Amount
	r.Source = u.Source
	r.Date = u.Date
}
