package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"bitwise74/finance-api/internal/apperr"
	"bitwise74/finance-api/internal/model"
	"bitwise74/finance-api/pkg/security"
	"bitwise74/finance-api/validators"

	"gorm.io/gorm"
)

// maxUsernameAttempts bounds the suffix search when an OAuth account is
// created under a name that is already taken
const maxUsernameAttempts = 1000

type LoginKind uint8

const (
	RequiresTwoFactor LoginKind = iota + 1
	SetupRequired
)

// LoginOutcome is the result of a successful first factor. Sessions are
// never handed out here, the caller always has to pass 2FA next.
type LoginOutcome struct {
	Kind     LoginKind
	Username string

	// Only set when Kind is SetupRequired
	Secret          string
	ProvisioningURI string

	Challenge string
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Identity resolves password and OAuth logins into users and applies the
// 2FA gate to every one of them
type Identity struct {
	DB        *gorm.DB
	Hasher    security.PasswordHasher
	Sessions  *Sessions
	Issuer    string
	Providers map[string]Provider
}

func (s *Identity) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = validators.NormalizeEmail(in.Email)

	fields := map[string]string{}
	if err := validators.UsernameValidator(in.Username); err != nil {
		fields["username"] = err.Error()
	}
	if err := validators.EmailValidator(in.Email); err != nil {
		fields["email"] = err.Error()
	}
	if err := validators.PasswordValidator(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid("Invalid registration details", fields)
	}

	db := s.DB.WithContext(ctx)

	if err := s.checkAvailable(db, in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: &hash,
		Role:         model.RoleUser,
		Provider:     model.ProviderLocal,
	}

	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to store invalid user, %w", err)
	}

	if err := db.Create(user).Error; err != nil {
		// Someone registered the same name between the check and the insert
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if cerr := s.checkAvailable(db, in.Username, in.Email); cerr != nil {
				return nil, cerr
			}

			return nil, ErrUsernameTaken
		}

		return nil, fmt.Errorf("failed to create user, %w", err)
	}

	return user, nil
}

func (s *Identity) checkAvailable(db *gorm.DB, username, email string) error {
	taken, err := exists(db.Model(&model.User{}).Where("username = ?", username))
	if err != nil {
		return fmt.Errorf("failed to check username, %w", err)
	}
	if taken {
		return ErrUsernameTaken
	}

	taken, err = exists(db.Model(&model.User{}).Where("email = ?", email))
	if err != nil {
		return fmt.Errorf("failed to check email, %w", err)
	}
	if taken {
		return ErrEmailTaken
	}

	return nil
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Limit(1).Count(&n).Error; err != nil {
		return false, err
	}

	return n > 0, nil
}

// Login checks a username and password. Unknown users, accounts without a
// password and wrong passwords all fail the same way.
func (s *Identity) Login(ctx context.Context, username, password string) (*LoginOutcome, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	return s.gate(ctx, user)
}

// Authenticate resolves the user behind a username and password without
// applying the 2FA gate
func (s *Identity) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.Hasher.Verify(password, *user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// FromChallenge resolves the user a challenge token was issued for
func (s *Identity) FromChallenge(ctx context.Context, challenge string) (*model.User, error) {
	userID, err := s.Sessions.ParseChallenge(challenge)
	if err != nil {
		return nil, err
	}

	user, err := s.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidToken
	}

	return user, err
}

func (s *Identity) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findBy(ctx, "username = ?", username)
}

// FindByID resolves the user a token was issued for
func (s *Identity) FindByID(ctx context.Context, id string) (*model.User, error) {
	return s.findBy(ctx, "id = ?", id)
}

func (s *Identity) findBy(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User

	err := s.DB.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	return &user, nil
}

// OAuthLogin resolves a provider token into a user, creating the account
// the first time an email is seen
func (s *Identity) OAuthLogin(ctx context.Context, provider, token string) (*LoginOutcome, error) {
	p, ok := s.Providers[strings.ToLower(provider)]
	if !ok {
		return nil, ErrInvalidProvider
	}

	if token == "" {
		return nil, apperr.Invalid("Invalid OAuth request", map[string]string{"token": "is required"})
	}

	ext, err := p.Exchange(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.findOrCreate(ctx, p.Name(), ext)
	if err != nil {
		return nil, err
	}

	return s.gate(ctx, user)
}

func (s *Identity) findOrCreate(ctx context.Context, provider string, ext *ExternalIdentity) (*model.User, error) {
	// Anyone could claim an unverified address, including one of a local account
	if !ext.EmailVerified {
		return nil, ErrEmailUnverified
	}

	email := validators.NormalizeEmail(ext.Email)
	db := s.DB.WithContext(ctx)

	var user model.User
	err := db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		return s.link(ctx, &user, provider, ext.Subject)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to fetch user by email, %w", err)
	}

	base := ext.Name
	if base == "" {
		base, _, _ = strings.Cut(email, "@")
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	created := &model.User{
		ID:         id,
		Email:      email,
		Role:       model.RoleUser,
		Provider:   provider,
		ProviderID: ext.Subject,
	}

	for counter := 0; counter < maxUsernameAttempts; counter++ {
		created.Username = base
		if counter > 0 {
			created.Username = base + strconv.Itoa(counter)
		}

		taken, err := exists(db.Model(&model.User{}).Where("username = ?", created.Username))
		if err != nil {
			return nil, fmt.Errorf("failed to check username, %w", err)
		}
		if taken {
			continue
		}

		err = db.Create(created).Error
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create oauth user, %w", err)
		}

		// A concurrent login may have created the account for this email
		if err := db.Where("email = ?", email).First(&user).Error; err == nil {
			return s.link(ctx, &user, provider, ext.Subject)
		}
	}

	return nil, fmt.Errorf("no free username found for %q", base)
}

// link attaches a provider identity to an existing account the first time
// it logs in through that provider. A different subject for the same email
// is refused.
func (s *Identity) link(ctx context.Context, user *model.User, provider, subject string) (*model.User, error) {
	if user.Provider == provider && user.ProviderID != "" {
		if user.ProviderID != subject {
			return nil, ErrProviderRejected
		}

		return user, nil
	}

	if user.ProviderID != "" {
		return user, nil
	}

	err := s.DB.WithContext(ctx).
		Model(user).
		Updates(map[string]any{"provider": provider, "provider_id": subject}).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to link provider, %w", err)
	}

	return user, nil
}

// gate decides what the client must do before it can get a session. Users
// that never finished enrollment get a TOTP secret the first time they get
// here, later logins reuse it.
func (s *Identity) gate(ctx context.Context, user *model.User) (*LoginOutcome, error) {
	challenge, err := s.Sessions.IssueChallenge(user)
	if err != nil {
		return nil, err
	}

	if user.TwoFactorEnabled {
		return &LoginOutcome{
			Kind:      RequiresTwoFactor,
			Username:  user.Username,
			Challenge: challenge,
		}, nil
	}

	if !hasSecret(user) {
		if err := provisionTOTP(ctx, s.DB, s.Issuer, user); err != nil {
			return nil, err
		}
	}

	return &LoginOutcome{
		Kind:            SetupRequired,
		Username:        user.Username,
		Secret:          *user.TwoFactorSecret,
		ProvisioningURI: ProvisioningURI(s.Issuer, user.Username, *user.TwoFactorSecret),
		Challenge:       challenge,
	}, nil
}

// ProvisioningURI builds the otpauth URI authenticator apps read from the
// enrollment QR code
func ProvisioningURI(issuer, username, secret string) string {
	return "otpauth://totp/" + url.PathEscape(issuer) + ":" + url.PathEscape(username) +
		"?secret=" + url.QueryEscape(secret) + "&issuer=" + url.QueryEscape(issuer)
}
