package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/twonumberfortyfives/e-commerce-shop/internal/model"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/repository"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/storage"
	"github.com/twonumberfortyfives/e-commerce-shop/pkg/validators"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const profileImagePrefix = "profile_images/"

type ImageUpload struct {
	ContentType string
	Body        io.ReadSeeker
}

// ProfileUpdate carries the fields to change. Nil or empty fields are left
// as they are.
type ProfileUpdate struct {
	Username *string
	Bio      *string
	Image    *ImageUpload
}

type Profiles struct {
	users    *repository.Users
	sessions *Sessions
	sink     storage.Sink
}

func NewProfiles(users *repository.Users, sessions *Sessions, sink storage.Sink) *Profiles {
	return &Profiles{
		users:    users,
		sessions: sessions,
		sink:     sink,
	}
}

func present(s *string) bool {
	return s != nil && *s != ""
}

// EditProfile applies upd to the user behind the session in carrier. All
// input is validated before the session is resolved, so a rejected edit
// never rotates tokens or writes anything. A rename re-issues the session and
// returns the new token pair, otherwise the pair is nil.
func (p *Profiles) EditProfile(ctx context.Context, carrier Carrier, upd ProfileUpdate) (*model.User, *TokenPair, error) {
	var ext string
	if upd.Image != nil {
		var err error
		ext, err = validators.ImageValidator(upd.Image.ContentType, upd.Image.Body)
		if err != nil {
			if errors.Is(err, validators.ErrImageTypeUnsupported) {
				return nil, nil, ErrUnsupportedImageType
			}

			return nil, nil, ErrInternal.Wrap(err)
		}
	}

	if present(upd.Username) {
		if err := validators.UsernameValidator(*upd.Username); err != nil {
			return nil, nil, ErrInvalidUsername.Wrap(err)
		}
	}

	if present(upd.Bio) {
		if err := validators.BioValidator(*upd.Bio); err != nil {
			return nil, nil, ErrInvalidBio.Wrap(err)
		}
	}

	user, err := p.sessions.Current(ctx, carrier)
	if err != nil {
		return nil, nil, err
	}

	renamed := present(upd.Username) && *upd.Username != user.Username
	if renamed {
		_, err := p.users.FindByUsername(ctx, *upd.Username)
		switch {
		case err == nil:
			return nil, nil, ErrDuplicateUsername
		case !errors.Is(err, repository.ErrNotFound):
			return nil, nil, ErrInternal.Wrap(err)
		}

		user.Username = *upd.Username
	}

	if present(upd.Bio) {
		bio := *upd.Bio
		user.Bio = &bio
	}

	var key string
	if upd.Image != nil {
		id, err := gonanoid.New()
		if err != nil {
			return nil, nil, ErrInternal.Wrap(err)
		}

		key = profileImagePrefix + id + ext
		if err := p.sink.Write(ctx, key, upd.Image.Body, upd.Image.ContentType); err != nil {
			return nil, nil, ErrStorageFailed.Wrap(err)
		}

		user.ProfilePicture = p.sink.URL(key)
	}

	err = p.users.Transaction(ctx, func(tx *repository.Users) error {
		if err := tx.Save(ctx, user); err != nil {
			return err
		}

		return tx.Refresh(ctx, user)
	})
	if err != nil {
		if key != "" {
			p.discard(key)
		}

		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrDuplicateUsername.Wrap(err)
		}

		return nil, nil, ErrInternal.Wrap(err)
	}

	if !renamed {
		return user, nil, nil
	}

	// Tokens carry the username, re-issue them so the session follows
	pair, err := p.sessions.issue(carrier, user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// discard removes an uploaded image whose profile change never got saved
func (p *Profiles) discard(key string) {
	// The request context may already be gone
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.sink.Delete(ctx, key); err != nil {
		zap.L().Error("Failed to clean up after failed profile edit", zap.Error(err), zap.String("key", key))
		return
	}

	zap.L().Debug("Cleaned up after failed profile edit", zap.String("key", key))
}

// MyProfile returns the profile of the user behind the session in carrier
func (p *Profiles) MyProfile(ctx context.Context, carrier Carrier) (*model.Profile, error) {
	user, err := p.sessions.Current(ctx, carrier)
	if err != nil {
		return nil, err
	}

	profile := user.Profile()
	return &profile, nil
}

func (p *Profiles) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := p.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, ErrInternal.Wrap(err)
	}

	return user, nil
}

// ListUsers returns every user ordered by id. No users is an empty slice.
func (p *Profiles) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := p.users.List(ctx)
	if err != nil {
		return nil, ErrInternal.Wrap(err)
	}

	return users, nil
}
