package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/twonumberfortyfives/e-commerce-shop/config"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/model"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/repository"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/testutil"
	"github.com/twonumberfortyfives/e-commerce-shop/pkg/security"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testPassword   = "password123"
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 24 * time.Hour
	testBaseURL    = "https://shop.example.com"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeCarrier struct {
	bearer  string
	refresh string
	ttl     time.Duration
	sets    int
	cleared bool
}

func (c *fakeCarrier) BearerToken() string  { return c.bearer }
func (c *fakeCarrier) RefreshToken() string { return c.refresh }

func (c *fakeCarrier) SetRefreshToken(token string, ttl time.Duration) {
	c.refresh = token
	c.ttl = ttl
	c.sets++
}

func (c *fakeCarrier) ClearRefreshToken() {
	c.refresh = ""
	c.cleared = true
}

type testEnv struct {
	db       *gorm.DB
	users    *repository.Users
	clock    *testClock
	codec    *security.Codec
	hasher   *security.ArgonHash
	mailer   *testutil.Mailer
	sink     *testutil.Sink
	sessions *Sessions
	reg      *Registration
	profiles *Profiles
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	clock := &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	codec, err := security.NewCodec("test-secret", "HS256", security.WithClock(clock.Now))
	require.NoError(t, err)

	e := &testEnv{
		db:     db,
		users:  repository.NewUsers(db),
		clock:  clock,
		codec:  codec,
		hasher: &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		mailer: &testutil.Mailer{},
		sink:   &testutil.Sink{},
	}

	e.sessions = NewSessions(e.users, codec, e.hasher,
		config.JWT{AccessTTL: testAccessTTL, RefreshTTL: testRefreshTTL},
		config.Auth{},
	)
	e.reg = NewRegistration(e.users, e.hasher, codec, e.mailer, testBaseURL)
	e.reg.now = clock.Now
	e.profiles = NewProfiles(e.users, e.sessions, e.sink)

	return e
}

func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()

	u, err := e.reg.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        testPassword,
		PasswordConfirm: testPassword,
	})
	require.NoError(t, err)

	return u
}

// login registers username and returns a carrier holding its session
func (e *testEnv) login(t *testing.T, username string) (*fakeCarrier, *TokenPair) {
	t.Helper()

	e.register(t, username)

	c := &fakeCarrier{}
	pair, err := e.sessions.Login(context.Background(), c, username, testPassword)
	require.NoError(t, err)

	return c, pair
}

// lastVerifyToken pulls the token out of the newest verification mail
func (e *testEnv) lastVerifyToken(t *testing.T) string {
	t.Helper()

	link, err := url.Parse(e.mailer.LastLink(testBaseURL))
	require.NoError(t, err)
	require.Equal(t, VerifyPath, link.Path)

	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	return token
}

var errBoom = errors.New("boom")
