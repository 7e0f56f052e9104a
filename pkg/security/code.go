package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const CodeLength = 6

var (
	codeRegex = regexp.MustCompile(`^\d{6}$`)
	codeSpace = big.NewInt(1_000_000)
)

// NewCode returns a uniformly random zero-padded 6 digit code
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate code, %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IsCode reports whether s has the shape of a one-time code
func IsCode(s string) bool {
	return codeRegex.MatchString(s)
}
