package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/twonumberfortyfives/e-commerce-shop/config"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/model"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/repository"
	"github.com/twonumberfortyfives/e-commerce-shop/pkg/security"
	"github.com/twonumberfortyfives/e-commerce-shop/pkg/validators"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// VerifyPath is where verification links point to, relative to the base URL
	VerifyPath = "/api/v1/users/verify"
	// ResendCooldown is the minimum time between two verification mails to the
	// same account
	ResendCooldown = time.Minute
)

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

type Registration struct {
	users   *repository.Users
	hasher  *security.ArgonHash
	codec   *security.Codec
	mailer  Mailer
	baseURL string
	now     func() time.Time
}

func NewRegistration(users *repository.Users, hasher *security.ArgonHash, codec *security.Codec, mailer Mailer, baseURL string) *Registration {
	return &Registration{
		users:   users,
		hasher:  hasher,
		codec:   codec,
		mailer:  mailer,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Register validates in, stores the new unverified user and sends the
// verification mail. The insert is rolled back when the mail can't be sent.
func (r *Registration) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if in.Password != in.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}

	if err := validators.UsernameValidator(in.Username); err != nil {
		return nil, ErrInvalidUsername.Wrap(err)
	}

	if err := validators.PasswordValidator(in.Password); err != nil {
		return nil, ErrInvalidPassword.Wrap(err)
	}

	if err := validators.EmailValidator(in.Email); err != nil {
		return nil, ErrInvalidEmail.Wrap(err)
	}

	if err := r.ensureFree(ctx, in.Email, in.Username); err != nil {
		return nil, err
	}

	hash, err := r.hasher.GenerateFromPassword(in.Password)
	if err != nil {
		return nil, ErrRegistrationFailed.Wrap(err)
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}

	err = r.users.Transaction(ctx, func(tx *repository.Users) error {
		if err := tx.Insert(ctx, user); err != nil {
			return err
		}

		if err := tx.MarkResend(ctx, user.ID, r.now()); err != nil {
			return err
		}

		if err := r.sendVerification(ctx, user.Email); err != nil {
			return ErrEmailDeliveryFailed.Wrap(err)
		}

		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailDeliveryFailed):
			return nil, err
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateAccount.Wrap(err)
		default:
			return nil, ErrRegistrationFailed.Wrap(err)
		}
	}

	return user, nil
}

// ensureFree reports which of email and username is already taken, email
// first. The unique indexes still have the last word on a race.
func (r *Registration) ensureFree(ctx context.Context, email, username string) error {
	_, err := r.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrDuplicateEmail
	case !errors.Is(err, repository.ErrNotFound):
		return ErrRegistrationFailed.Wrap(err)
	}

	_, err = r.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return ErrDuplicateUsername
	case !errors.Is(err, repository.ErrNotFound):
		return ErrRegistrationFailed.Wrap(err)
	}

	return nil
}

// VerifyEmail flips the verified flag of the account the token was issued for
func (r *Registration) VerifyEmail(ctx context.Context, token string) error {
	claims, err := r.codec.DecodeAs(token, security.TokenVerify)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return ErrVerificationExpired
		}

		return ErrInvalidVerificationToken.Wrap(err)
	}

	user, err := r.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}

		return ErrInternal.Wrap(err)
	}

	if user.Verified {
		return ErrAlreadyVerified
	}

	user.Verified = true
	if err := r.users.Save(ctx, user); err != nil {
		return ErrInternal.Wrap(err)
	}

	return nil
}

// ResendVerification sends a new verification link to an unverified account
func (r *Registration) ResendVerification(ctx context.Context, email string) error {
	if err := validators.EmailValidator(email); err != nil {
		return ErrInvalidEmail.Wrap(err)
	}

	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}

		return ErrInternal.Wrap(err)
	}

	if user.Verified {
		return ErrAlreadyVerified
	}

	last, err := r.users.LastResend(ctx, user.ID)
	if err != nil {
		return ErrInternal.Wrap(err)
	}

	now := r.now()
	if now.Sub(last) < ResendCooldown {
		return ErrResendTooSoon
	}

	if err := r.sendVerification(ctx, user.Email); err != nil {
		return ErrEmailDeliveryFailed.Wrap(err)
	}

	if err := r.users.MarkResend(ctx, user.ID, now); err != nil {
		return ErrInternal.Wrap(err)
	}

	return nil
}

// VerificationLink builds the absolute link a verification token is mailed in
func (r *Registration) VerificationLink(email string) (string, error) {
	token, err := r.codec.Encode(security.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: email},
		Type:             security.TokenVerify,
	}, config.VerificationTTL)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%s?token=%s", r.baseURL, VerifyPath, url.QueryEscape(token)), nil
}

func (r *Registration) sendVerification(ctx context.Context, email string) error {
	link, err := r.VerificationLink(email)
	if err != nil {
		return err
	}

	subject, body := verificationMail(link)
	return r.mailer.Send(ctx, email, subject, body)
}
