// Package repository wraps the gorm queries the services depend on
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twonumberfortyfives/e-commerce-shop/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Users is the user directory. A Users obtained inside Transaction is bound
// to that transaction and must not be used after the callback returns.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w, %w", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w, %w", ErrDuplicate, err)
	default:
		return err
	}
}

func (u *Users) first(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User
	if err := u.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}

	return &user, nil
}

func (u *Users) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return u.first(ctx, "id = ?", id)
}

func (u *Users) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return u.first(ctx, "username = ?", username)
}

func (u *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.first(ctx, "email = ?", email)
}

// Insert creates user and fills in its ID. A unique index violation is
// reported as ErrDuplicate.
func (u *Users) Insert(ctx context.Context, user *model.User) error {
	return translate(u.db.WithContext(ctx).Create(user).Error)
}

// Save writes every field of an existing user back to the store
func (u *Users) Save(ctx context.Context, user *model.User) error {
	if user.ID == 0 {
		return errors.New("can't save a user that was never inserted")
	}

	return translate(u.db.WithContext(ctx).Save(user).Error)
}

// Refresh reloads user from the store, discarding unsaved changes
func (u *Users) Refresh(ctx context.Context, user *model.User) error {
	var fresh model.User
	if err := u.db.WithContext(ctx).First(&fresh, user.ID).Error; err != nil {
		return translate(err)
	}

	*user = fresh
	return nil
}

func (u *Users) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := u.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// Transaction runs fn inside a database transaction. It commits when fn
// returns nil and rolls back on an error or a panic.
func (u *Users) Transaction(ctx context.Context, fn func(tx *Users) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Users{db: tx})
	})
}

// DeleteUnverifiedBefore removes accounts that never verified their email and
// were created before cutoff, together with their resend bookkeeping. It
// returns the number of deleted users.
func (u *Users) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64

	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&model.User{}).
			Select("id").
			Where("verified = ? AND created_at < ?", false, cutoff)

		if err := tx.Where("user_id IN (?)", stale).Delete(&model.ResendRequest{}).Error; err != nil {
			return err
		}

		res := tx.Where("verified = ? AND created_at < ?", false, cutoff).Delete(&model.User{})
		n = res.RowsAffected
		return res.Error
	})

	return n, err
}

// LastResend returns when a verification mail was last sent to the user, the
// zero time if never
func (u *Users) LastResend(ctx context.Context, userID uint) (time.Time, error) {
	var r model.ResendRequest
	err := u.db.WithContext(ctx).Where("user_id = ?", userID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}

	return r.LastResend, err
}

func (u *Users) MarkResend(ctx context.Context, userID uint, at time.Time) error {
	return u.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_resend"}),
		}).
		Create(&model.ResendRequest{UserID: userID, LastResend: at}).
		Error
}
