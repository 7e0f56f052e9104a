package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bitwise74/finance-api/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// ExternalIdentity is what a provider vouches for after checking a token
type ExternalIdentity struct {
	Email         string
	EmailVerified bool
	Subject       string
	Name          string
}

// Provider exchanges a provider issued token for a verified identity
type Provider interface {
	Name() string
	Exchange(ctx context.Context, token string) (*ExternalIdentity, error)
}

// Google validates ID tokens with the tokeninfo call of Google's OAuth2 API
type Google struct {
	// Endpoint is the API base URL, https://www.googleapis.com/ in production
	Endpoint string
	ClientID string
	Client   *http.Client
}

func NewGoogle(endpoint, clientID string) *Google {
	return &Google{
		Endpoint: endpoint,
		ClientID: clientID,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Exchange(ctx context.Context, token string) (*ExternalIdentity, error) {
	opts := []option.ClientOption{option.WithHTTPClient(g.Client)}
	if g.Endpoint != "" {
		endpoint := g.Endpoint
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}

		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google oauth2 client, %w", err)
	}

	info, err := svc.Tokeninfo().IdToken(token).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code >= 400 && gerr.Code < 500 {
			zap.L().Debug("Google rejected token", zap.Error(err))
			return nil, ErrProviderRejected
		}

		return nil, apperr.Wrap(apperr.Upstream, ErrProviderFailure.Msg, err)
	}

	if info.Email == "" || info.UserId == "" {
		return nil, apperr.Wrap(apperr.Upstream, ErrProviderFailure.Msg, errors.New("tokeninfo response without email or user_id"))
	}

	if g.ClientID != "" && info.Audience != g.ClientID {
		return nil, ErrProviderRejected
	}

	return &ExternalIdentity{
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		Subject:       info.UserId,
		Name:          displayName(token),
	}, nil
}

// displayName reads the profile name from an ID token Google already
// accepted. Tokeninfo doesn't return it.
func displayName(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}

	name, _ := claims["name"].(string)
	return name
}
