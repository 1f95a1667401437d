package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

// Transactor runs work against transaction-scoped repositories.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new PostgreSQL transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx begins a transaction, runs fn with repositories bound to it, and
// commits if fn succeeds.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	repos := repository.Repositories{
		Trips:    NewTripRepositoryWithTx(tx),
		Bookings: NewBookingRepositoryWithTx(tx),
	}

	if err = fn(ctx, repos); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ensure Transactor implements repository.Transactor.
var _ repository.Transactor = (*Transactor)(nil)
