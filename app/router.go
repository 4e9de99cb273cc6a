// Package app wires the dependencies together and declares the HTTP routes
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/twonumberfortyfives/e-commerce-shop/app/root"
	"github.com/twonumberfortyfives/e-commerce-shop/app/user"
	"github.com/twonumberfortyfives/e-commerce-shop/config"
	"github.com/twonumberfortyfives/e-commerce-shop/db"
	"github.com/twonumberfortyfives/e-commerce-shop/internal"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/repository"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/service"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/storage"
	"github.com/twonumberfortyfives/e-commerce-shop/pkg/middleware"
	"github.com/twonumberfortyfives/e-commerce-shop/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"

	jsonBodyLimit = 1 << 20
)

// App is everything main needs to serve and shut down
type App struct {
	Router  *gin.Engine
	Deps    *internal.Deps
	Limiter *middleware.RateLimiter
	// nil unless unverified accounts expire
	Cleanup *service.AccountCleanup
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := makeLogger(cfg.App.LogLevel); err != nil {
		return nil, err
	}

	database, err := db.New(cfg.Database, cfg.App.LogLevel)
	if err != nil {
		return nil, err
	}

	sink, err := newSink(ctx, cfg)
	if err != nil {
		return nil, err
	}

	codec, err := security.NewCodec(cfg.JWT.Secret, cfg.JWT.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec, %w", err)
	}

	var mailer service.Mailer = service.LogMailer{}
	if cfg.Mail.Enabled() {
		mailer = service.NewSMTPMailer(cfg.Mail)
	} else {
		zap.L().Warn("No mail host configured, verification mails will only be logged")
	}

	hasher := security.NewArgonHash()
	users := repository.NewUsers(database)
	sessions := service.NewSessions(users, codec, hasher, cfg.JWT, cfg.Auth)

	d := &internal.Deps{
		Config:       cfg,
		DB:           database,
		Sink:         sink,
		Sessions:     sessions,
		Registration: service.NewRegistration(users, hasher, codec, mailer, cfg.BaseURL()),
		Profiles:     service.NewProfiles(users, sessions, sink),
		Cache:        newCacheStore(cfg.Cache),
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Security.RateLimit,
		Burst:             cfg.Security.RateLimit * 2,
	})

	a := &App{
		Router:  NewRouter(d, limiter),
		Deps:    d,
		Limiter: limiter,
	}

	if cfg.Auth.CleanupEnabled() {
		a.Cleanup = service.NewAccountCleanup(users, time.Hour, cfg.Auth.UnverifiedTTL)
	}

	return a, nil
}

func NewRouter(d *internal.Deps, limiter *middleware.RateLimiter) *gin.Engine {
	cfg := d.Config
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.Host.CORS,
			AllowMethods:     []string{"GET", "POST", "PATCH", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("requestID", v))
				}

				if v := c.GetString("username"); v != "" {
					fields = append(fields, zap.String("username", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = cfg.Upload.MaxSize

	if cfg.Storage.Type == "local" {
		router.Static("/static", cfg.Storage.Dir)
	}

	jwt := middleware.NewJWTMiddleware(d.Sessions)
	turnstile := middleware.NewTurnstileMiddleware(cfg.Turnstile)
	jsonLimit := middleware.BodySizeLimiter(jsonBodyLimit)
	// Room for the form fields next to the image itself
	uploadLimit := middleware.BodySizeLimiter(cfg.Upload.MaxSize + jsonBodyLimit)

	m := router.Group("/api", limiter.Middleware())
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
	}

	u := m.Group("/v1/users")
	{
		// GET /api/v1/users		-> Lists every user
		u.GET("", jwt, cacheFor(d.Cache, 10*time.Second, user.ListCacheKey), func(c *gin.Context) { user.UserList(c, d) })

		// POST /api/v1/users 		-> Registers a new user and sends the verification mail
		u.POST("", jsonLimit, turnstile, func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/v1/users/login 	-> Logs in a user, sets the refresh cookie and returns an access token
		u.POST("/login", jsonLimit, func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/v1/users/refresh	-> Rotates the session tokens
		u.POST("/refresh", func(c *gin.Context) { user.UserRefresh(c, d) })

		// POST /api/v1/users/logout	-> Clears the refresh cookie
		u.POST("/logout", func(c *gin.Context) { user.UserLogout(c, d) })

		// GET /api/v1/users/verify	-> Verifies an email address with the mailed token
		u.GET("/verify", func(c *gin.Context) { user.UserVerify(c, d) })

		// POST /api/v1/users/verify/resend	-> Sends a new verification mail
		u.POST("/verify/resend", jsonLimit, turnstile, func(c *gin.Context) { user.UserResendVerification(c, d) })

		// GET /api/v1/users/me		-> Returns the profile of the logged in user
		u.GET("/me", func(c *gin.Context) { user.UserMe(c, d) })

		// PATCH /api/v1/users/me	-> Edits username, bio or profile image
		u.PATCH("/me", uploadLimit, func(c *gin.Context) { user.UserEdit(c, d) })

		// GET /api/v1/users/:id	-> Returns a user by ID
		u.GET("/:id", jwt, cacheFor(d.Cache, time.Minute, user.FetchCacheKey), func(c *gin.Context) { user.UserFetch(c, d) })
	}

	return router
}

func newSink(ctx context.Context, cfg *config.Config) (storage.Sink, error) {
	if cfg.Storage.Type == "s3" {
		s, err := storage.NewS3Sink(ctx, cfg.AWS, cfg.Storage.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		return s, nil
	}

	return storage.NewLocalSink(cfg.Storage.Dir, cfg.StorageURL())
}

func newCacheStore(c config.Cache) persist.CacheStore {
	if c.Type == "redis" {
		return persist.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		}))
	}

	return persist.NewMemoryStore(time.Minute)
}

func makeLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level, %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger, %w", err)
	}

	zap.ReplaceGlobals(log)
	return nil
}

// cacheFor caches successful responses under the key picked by key. PATCH
// /users/me deletes the keys it makes stale.
func cacheFor(store persist.CacheStore, d time.Duration, key func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return cache.Cache(store, d, cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
		k, ok := key(c)
		return ok, cache.Strategy{CacheKey: k}
	}))
}
