package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"schedcal/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEventNotFound = errors.New("event not found")
	ErrDuplicate     = errors.New("username or email already exists")
	ErrUnknownOwner  = errors.New("invalid user_id")
)

// Users owns the users relation. Uniqueness of username and email is
// enforced by the store itself, not by callers.
type Users interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id int) (models.User, error)
	// GetByLogin matches login against username or email in a single
	// lookup. An exact username match wins over an email match.
	GetByLogin(ctx context.Context, login string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id int, patch models.UserPatch) (models.User, error)
	// Delete removes the user and, by cascade, every event it owns.
	Delete(ctx context.Context, id int) (models.User, error)
	Exists(ctx context.Context, id int) (bool, error)
}

// Events owns the events relation. Listing operations join the owner's
// username and order by start_time ascending.
type Events interface {
	Create(ctx context.Context, event models.Event) (models.Event, error)
	GetByID(ctx context.Context, id int) (models.Event, error)
	ListAll(ctx context.Context) ([]models.Event, error)
	ListByOwner(ctx context.Context, userID int) ([]models.Event, error)
	ListByRange(ctx context.Context, start, end time.Time) ([]models.Event, error)
	Update(ctx context.Context, id int, patch models.EventPatch) (models.Event, error)
	Delete(ctx context.Context, id int) (models.Event, error)
}

// translateError maps postgres constraint violations onto the sentinel
// errors callers branch on. The foreign-key constraint is the source of
// truth for owner validity; any pre-check upstream is an optimization.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicate
		case "23503":
			return ErrUnknownOwner
		}
	}
	return err
}
