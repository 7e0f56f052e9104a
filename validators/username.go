package validators

import (
	"errors"
	"regexp"
)

var (
	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameLength  = errors.New("username must be between 3 and 32 characters long")
	ErrUsernameInvalid = errors.New("username may only contain letters, digits, dots, dashes and underscores")

	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if len(u) < 3 || len(u) > 32 {
		return ErrUsernameLength
	}

	if !usernameRegex.MatchString(u) {
		return ErrUsernameInvalid
	}

	return nil
}
