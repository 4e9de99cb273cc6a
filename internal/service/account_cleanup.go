package service

import (
	"context"
	"time"

	"github.com/twonumberfortyfives/e-commerce-shop/internal/repository"

	"go.uber.org/zap"
)

// AccountCleanup periodically hard deletes accounts that were registered but
// never verified their email within maxAge. It is the only place users are
// removed and only runs when verification is required.
type AccountCleanup struct {
	users  *repository.Users
	every  time.Duration
	maxAge time.Duration
	now    func() time.Time
}

func NewAccountCleanup(users *repository.Users, every, maxAge time.Duration) *AccountCleanup {
	return &AccountCleanup{
		users:  users,
		every:  every,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Run sweeps once right away and then on every tick until ctx is done
func (a *AccountCleanup) Run(ctx context.Context) {
	ticker := time.NewTicker(a.every)
	defer ticker.Stop()

	zap.L().Debug("Account cleanup attached", zap.Duration("tick_every", a.every), zap.Duration("max_age", a.maxAge))

	for {
		if _, err := a.Sweep(ctx); err != nil && ctx.Err() == nil {
			zap.L().Error("Failed to clean up unverified accounts", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *AccountCleanup) Sweep(ctx context.Context) (int64, error) {
	n, err := a.users.DeleteUnverifiedBefore(ctx, a.now().Add(-a.maxAge))
	if err != nil {
		return 0, err
	}

	if n > 0 {
		zap.L().Info("Deleted unverified accounts", zap.Int64("count", n))
	}

	return n, nil
}
