package validators

import (
	"errors"
	"strings"
	"unicode"
)

const passwordSpecials = "@#$%^&+=!"

var (
	ErrPasswordEmpty    = errors.New("no password provided")
	ErrPasswordTooShort = errors.New("password must be at least 10 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordWeak     = errors.New("password must contain at least one digit, one lowercase letter, one uppercase letter, and one special character")
)

// PasswordValidator enforces the strength rule for every password a user
// chooses, both at registration and on reset
func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < 10 {
		return ErrPasswordTooShort
	}

	// argon2 accepts anything but there is no reason to hash megabytes
	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	var digit, lower, upper, special bool
	for _, r := range p {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}

	if !digit || !lower || !upper || !special {
		return ErrPasswordWeak
	}

	return nil
}
