package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/twonumberfortyfives/e-commerce-shop/internal/apperr"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/model"
	"github.com/twonumberfortyfives/e-commerce-shop/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngImage = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func ptr(s string) *string { return &s }

func TestEditProfile_BioOnly(t *testing.T) {
	e := newEnv(t)
	c, _ := e.login(t, "alice")
	ctx := context.Background()

	user, pair, err := e.profiles.EditProfile(ctx, c, ProfileUpdate{Bio: ptr("hello there")})
	require.NoError(t, err)
	assert.Nil(t, pair)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, model.DefaultProfilePicture, user.ProfilePicture)
	require.NotNil(t, user.Bio)
	assert.Equal(t, "hello there", *user.Bio)

	stored, err := e.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hello there", *stored.Bio)
	assert.Equal(t, model.DefaultProfilePicture, stored.ProfilePicture)
}

func TestEditProfile_EmptyFieldsAreIgnored(t *testing.T) {
	e := newEnv(t)
	c, _ := e.login(t, "alice")
	ctx := context.Background()

	_, _, err := e.profiles.EditProfile(ctx, c, ProfileUpdate{Bio: ptr("keep me")})
	require.NoError(t, err)

	user, _, err := e.profiles.EditProfile(ctx, c, ProfileUpdate{Username: ptr(""), Bio: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "keep me", *user.Bio)
}

func TestEditProfile_UnsupportedImage(t *testing.T) {
	e := newEnv(t)
	c, _ := e.login(t, "alice")
	ctx := context.Background()
	before := *c

	for _, img := range []*ImageUpload{
		{ContentType: "text/plain", Body: strings.NewReader("hello")},
		// declared as png but isn't one
		{ContentType: "image/png", Body: strings.NewReader("hello")},
	} {
		_, _, err := e.profiles.EditProfile(ctx, c, ProfileUpdate{Bio: ptr("new"), Image: img})
		assert.ErrorIs(t, err, ErrUnsupportedImageType)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}

	assert.Empty(t, e.sink.Objects())
	assert.Equal(t, before, *c)

	stored, err := e.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, stored.Bio)
}

func TestEditProfile_Image(t *testing.T) {
	e := newEnv(t)
	c, _ := e.login(t, "alice")
	ctx := context.Background()

	user, _, err := e.profiles.EditProfile(ctx, c, ProfileUpdate{
		Image: &ImageUpload{ContentType: "image/png", Body: bytes.NewReader(pngImage)},
	})
	require.NoError(t, err)

	require.Len(t, e.sink.Objects(), 1)
	for key, body := range e.sink.Objects() {
		assert.True(t, strings.HasPrefix(key, "profile_images/"), key)
		assert.True(t, strings.HasSuffix(key, ".png"), key)
		assert.Equal(t, pngImage, body)
		assert.Equal(t, "https://cdn.example.com/"+key, user.ProfilePicture)
	}

	stored, err := e.users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ProfilePicture, stored.ProfilePicture)
}

func TestEditProfile_StorageFailure(t *testing.T) {
	e := newEnv(t)
	c, _ := e.login(t, "alice")
	e.sink.Err = errBoom

	_, _, err := e.profiles.EditProfile(context.Background(), c, ProfileUpdate{
		Image: &ImageUpload{ContentType: "image/png", Body: bytes.NewReader(pngImage)},
	})
	assert.ErrorIs(t, err, ErrStorageFailed)
	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))
}

func TestEditProfile_Rename(t *testing.T) {
	e := newEnv(t)
	c, _ := e.login(t, "alice")
	ctx := context.Background()

	e.clock.Advance(time.Second)

	user, pair, err := e.profiles.EditProfile(ctx, c, ProfileUpdate{Username: ptr("alicia")})
	require.NoError(t, err)
	assert.Equal(t, "alicia", user.Username)

	// the refresh cookie follows the new name
	claims, err := e.codec.DecodeAs(c.refresh, security.TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, "alicia", claims.Subject)
	assert.Equal(t, user.ID, claims.UserID)

	require.NotNil(t, pair)
	assert.Equal(t, pair.RefreshToken, c.refresh)

	access, err := e.codec.DecodeAs(pair.AccessToken, security.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "alicia", access.Subject)

	current, err := e.sessions.Current(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)
}

func TestEditProfile_RenameWithBearer(t *testing.T) {
	e := newEnv(t)
	c, login := e.login(t, "alice")
	c.bearer = login.AccessToken
	ctx := context.Background()

	e.clock.Advance(time.Second)

	user, pair, err := e.profiles.EditProfile(ctx, c, ProfileUpdate{Username: ptr("alicia")})
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.NotEqual(t, login.AccessToken, pair.AccessToken)

	// the client still sends the old bearer, the cookie carries the session
	current, err := e.sessions.Current(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)
	assert.Equal(t, "alicia", current.Username)

	refreshed, err := e.sessions.Refresh(ctx, c)
	require.NoError(t, err)
	assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)

	claims, err := e.codec.DecodeAs(refreshed.AccessToken, security.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "alicia", claims.Subject)

	// the freed name is taken by a new account
	_, err = e.reg.Register(ctx, RegisterInput{
		Username:        "alice",
		Email:           "new-alice@example.com",
		Password:        testPassword,
		PasswordConfirm: testPassword,
	})
	require.NoError(t, err)

	_, err = e.sessions.Authenticate(ctx, login.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	_, err = e.sessions.Current(ctx, &fakeCarrier{bearer: login.AccessToken})
	assert.ErrorIs(t, err, ErrMissingRefreshToken)

	// the new token still works for the renamed account
	got, err := e.sessions.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestEditProfile_FailedSaveDiscardsImage(t *testing.T) {
	e := newEnv(t)
	c, _ := e.login(t, "alice")
	ctx := context.Background()

	// someone registers the name while the image is uploading
	e.sink.OnWrite = func() {
		require.NoError(t, e.db.Create(&model.User{
			Username:     "alicia",
			Email:        "alicia@example.com",
			PasswordHash: "x",
		}).Error)
	}

	_, _, err := e.profiles.EditProfile(ctx, c, ProfileUpdate{
		Username: ptr("alicia"),
		Image:    &ImageUpload{ContentType: "image/png", Body: bytes.NewReader(pngImage)},
	})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	assert.Empty(t, e.sink.Objects())

	stored, err := e.users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
	assert.Equal(t, model.DefaultProfilePicture, stored.ProfilePicture)
}

func TestEditProfile_RenameConflicts(t *testing.T) {
	e := newEnv(t)
	e.register(t, "bob")
	c, _ := e.login(t, "alice")
	ctx := context.Background()

	_, _, err := e.profiles.EditProfile(ctx, c, ProfileUpdate{Username: ptr("bob")})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, _, err = e.profiles.EditProfile(ctx, c, ProfileUpdate{Username: ptr("no way")})
	assert.ErrorIs(t, err, ErrInvalidUsername)

	_, _, err = e.profiles.EditProfile(ctx, c, ProfileUpdate{Bio: ptr(strings.Repeat("b", 501))})
	assert.ErrorIs(t, err, ErrInvalidBio)

	// keeping the same name is not a conflict
	_, _, err = e.profiles.EditProfile(ctx, c, ProfileUpdate{Username: ptr("alice")})
	assert.NoError(t, err)
}

func TestEditProfile_NoSession(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.profiles.EditProfile(context.Background(), &fakeCarrier{}, ProfileUpdate{Bio: ptr("x")})
	assert.ErrorIs(t, err, ErrMissingRefreshToken)
}

func TestMyProfile(t *testing.T) {
	e := newEnv(t)
	c, _ := e.login(t, "alice")

	p, err := e.profiles.MyProfile(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.Equal(t, model.DefaultProfilePicture, p.ProfilePicture)
}

func TestGetUserAndList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	users, err := e.profiles.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	alice := e.register(t, "alice")
	e.register(t, "bob")

	got, err := e.profiles.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = e.profiles.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	users, err = e.profiles.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
