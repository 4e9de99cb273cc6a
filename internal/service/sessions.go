// Package service holds the authentication, registration and profile logic.
// Services are transport agnostic and return *apperr.Error values.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/twonumberfortyfives/e-commerce-shop/config"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/model"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/repository"
	"github.com/twonumberfortyfives/e-commerce-shop/pkg/security"

	"github.com/golang-jwt/jwt/v5"
)

// Carrier moves tokens between the client and the session manager. The
// manager decides what to write, the carrier decides how.
type Carrier interface {
	// BearerToken returns the access token from the Authorization header or
	// an empty string
	BearerToken() string
	// RefreshToken returns the refresh cookie value or an empty string
	RefreshToken() string
	SetRefreshToken(token string, ttl time.Duration)
	ClearRefreshToken()
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"-"`
}

type Sessions struct {
	users  *repository.Users
	codec  *security.Codec
	hasher *security.ArgonHash

	accessTTL       time.Duration
	refreshTTL      time.Duration
	requireVerified bool
}

func NewSessions(users *repository.Users, codec *security.Codec, hasher *security.ArgonHash, j config.JWT, a config.Auth) *Sessions {
	return &Sessions{
		users:           users,
		codec:           codec,
		hasher:          hasher,
		accessTTL:       j.AccessTTL,
		refreshTTL:      j.RefreshTTL,
		requireVerified: a.RequireVerified,
	}
}

// Login checks the credentials, writes a fresh refresh token to the carrier
// and returns the access token
func (s *Sessions) Login(ctx context.Context, carrier Carrier, username, password string) (*TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, ErrInternal.Wrap(err)
	}

	ok, err := s.hasher.VerifyPasswd(password, user.PasswordHash)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}

	if !ok {
		return nil, ErrInvalidCredentials
	}

	if s.requireVerified && !user.Verified {
		return nil, ErrEmailNotVerified
	}

	return s.issue(carrier, user)
}

// Refresh returns a usable access token for the session in carrier. A valid
// bearer token of an existing user is echoed back as is. Otherwise the
// refresh cookie is checked and both tokens are rotated.
func (s *Sessions) Refresh(ctx context.Context, carrier Carrier) (*TokenPair, error) {
	_, pair, err := s.resolve(ctx, carrier, true)
	return pair, err
}

// Logout clears the refresh cookie. A session that can't be refreshed is
// reported as ErrLogoutFailed and the cookie is left alone.
func (s *Sessions) Logout(ctx context.Context, carrier Carrier) error {
	if _, _, err := s.resolve(ctx, carrier, false); err != nil {
		return ErrLogoutFailed.Wrap(err)
	}

	carrier.ClearRefreshToken()
	return nil
}

// Current resolves the user behind the session in carrier. Like Refresh it
// may rotate the tokens.
func (s *Sessions) Current(ctx context.Context, carrier Carrier) (*model.User, error) {
	user, _, err := s.resolve(ctx, carrier, true)
	return user, err
}

// Authenticate validates a bare access token without touching cookies
func (s *Sessions) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}

	claims, err := s.codec.DecodeAs(accessToken, security.TokenAccess)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return nil, ErrAccessTokenExpired
		}

		return nil, ErrInvalidAccessToken.Wrap(err)
	}

	user, err := s.lookup(ctx, claims)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidAccessToken.Wrap(err)
	}

	return user, err
}

func (s *Sessions) resolve(ctx context.Context, carrier Carrier, rotate bool) (*model.User, *TokenPair, error) {
	if bearer := carrier.BearerToken(); bearer != "" {
		// An invalid bearer token, or one whose user is gone, falls through
		// to the cookie
		if claims, err := s.codec.DecodeAs(bearer, security.TokenAccess); err == nil {
			user, err := s.lookup(ctx, claims)
			switch {
			case err == nil:
				return user, &TokenPair{AccessToken: bearer, TokenType: "bearer"}, nil
			case !errors.Is(err, ErrUserNotFound):
				return nil, nil, err
			}
		}
	}

	raw := carrier.RefreshToken()
	if raw == "" {
		return nil, nil, ErrMissingRefreshToken
	}

	claims, err := s.codec.DecodeAs(raw, security.TokenRefresh)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return nil, nil, ErrRefreshTokenExpired
		}

		return nil, nil, ErrInvalidRefreshToken.Wrap(err)
	}

	user, err := s.lookup(ctx, claims)
	if err != nil {
		return nil, nil, err
	}

	if !rotate {
		return user, nil, nil
	}

	pair, err := s.issue(carrier, user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// issue mints a new token pair for user and hands the refresh token to the
// carrier
func (s *Sessions) issue(carrier Carrier, user *model.User) (*TokenPair, error) {
	access, err := s.codec.Encode(security.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.Username},
		Type:             security.TokenAccess,
		UserID:           user.ID,
	}, s.accessTTL)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}

	refresh, err := s.codec.Encode(security.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.Username},
		Type:             security.TokenRefresh,
		UserID:           user.ID,
	}, s.refreshTTL)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}

	carrier.SetRefreshToken(refresh, s.refreshTTL)

	return &TokenPair{
		AccessToken:  access,
		TokenType:    "bearer",
		RefreshToken: refresh,
	}, nil
}

// lookup loads the user a session token was issued to. A username that now
// belongs to another account counts as not found.
func (s *Sessions) lookup(ctx context.Context, claims *security.Claims) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, ErrInternal.Wrap(err)
	}

	if user.ID != claims.UserID {
		return nil, ErrUserNotFound
	}

	return user, nil
}
