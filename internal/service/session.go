package service

import (
	"errors"
	"fmt"
	"time"

	"bitwise74/finance-api/internal/apperr"
	"bitwise74/finance-api/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAuth      = "auth"
	tokenTypeChallenge = "mfa"
)

// Verified proves that a user passed the second factor. Only
// TwoFactor.Verify creates one, which makes it impossible to issue a
// session without going through the 2FA gate.
type Verified struct {
	user *model.User
}

func (v *Verified) User() *model.User { return v.user }

// Claims is the identity carried by a session token
type Claims struct {
	UserID    string
	Username  string
	Role      string
	Authority string
	ExpiresAt time.Time
}

// Sessions signs and checks HS256 tokens. Two kinds exist: full sessions
// ("auth") and short lived challenges ("mfa") proving the first factor.
type Sessions struct {
	secret       []byte
	ttl          time.Duration
	challengeTTL time.Duration
	Now          func() time.Time
}

func NewSessions(secret string, ttl, challengeTTL time.Duration) *Sessions {
	return &Sessions{
		secret:       []byte(secret),
		ttl:          ttl,
		challengeTTL: challengeTTL,
		Now:          time.Now,
	}
}

// Issue signs a session token for a user that completed 2FA
func (s *Sessions) Issue(v *Verified) (string, error) {
	if v == nil || v.user == nil {
		return "", errors.New("no verified identity provided")
	}

	now := s.Now()
	return s.sign(jwt.MapClaims{
		"sub":       v.user.Username,
		"uid":       v.user.ID,
		"role":      v.user.Role,
		"authority": "ROLE_" + v.user.Role,
		"type":      tokenTypeAuth,
		"iat":       now.Unix(),
		"exp":       now.Add(s.ttl).Unix(),
	})
}

// IssueChallenge signs a token that lets the holder ask for and submit a
// 2FA code for u without sending the password again
func (s *Sessions) IssueChallenge(u *model.User) (string, error) {
	now := s.Now()
	return s.sign(jwt.MapClaims{
		"sub":  u.Username,
		"uid":  u.ID,
		"type": tokenTypeChallenge,
		"iat":  now.Unix(),
		"exp":  now.Add(s.challengeTTL).Unix(),
	})
}

// Parse validates a session token and returns its claims
func (s *Sessions) Parse(token string) (*Claims, error) {
	claims, err := s.parse(token, tokenTypeAuth)
	if err != nil {
		return nil, err
	}

	role, _ := claims["role"].(string)
	authority, _ := claims["authority"].(string)
	if role == "" {
		return nil, ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	exp, _ := claims.GetExpirationTime()

	return &Claims{
		UserID:    claims["uid"].(string),
		Username:  sub,
		Role:      role,
		Authority: authority,
		ExpiresAt: exp.Time,
	}, nil
}

// ParseChallenge returns the id of the user a challenge token was issued for
func (s *Sessions) ParseChallenge(token string) (string, error) {
	claims, err := s.parse(token, tokenTypeChallenge)
	if err != nil {
		return "", err
	}

	return claims["uid"].(string), nil
}

func (s *Sessions) sign(c jwt.MapClaims) (string, error) {
	t, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token, %w", err)
	}

	return t, nil
}

func (s *Sessions) parse(token, wantType string) (jwt.MapClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthenticated, ErrInvalidToken.Msg, err)
	}

	if typ, _ := claims["type"].(string); typ != wantType {
		return nil, ErrInvalidToken
	}

	if sub, _ := claims.GetSubject(); sub == "" {
		return nil, ErrInvalidToken
	}

	// Usernames are freed when an account is deleted, ids never are
	if uid, _ := claims["uid"].(string); uid == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
