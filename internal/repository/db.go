package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict is returned when an insert is suppressed by a uniqueness constraint.
var ErrConflict = errors.New("conflicting row exists")

// ErrOutOfRange is returned when a value overflows its column type.
var ErrOutOfRange = errors.New("value out of range")

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can open transactions.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repositories groups the repositories bound to a single Querier.
type Repositories struct {
	Carts     CartRepository
	Wishlists WishlistRepository
	Products  ProductRepository
}

func NewRepositories(q Querier) Repositories {
	return Repositories{
		Carts:     NewCartRepository(q),
		Wishlists: NewWishlistRepository(q),
		Products:  NewProductRepository(q),
	}
}

// Transactor runs fn against repositories bound to one transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(r Repositories) error) error
}

type pgTransactor struct{ db DB }

func NewTransactor(db DB) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(r Repositories) error) (txErr error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("rollback tx: %w", rollbackErr))
			}
		}
	}()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}
