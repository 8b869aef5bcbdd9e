package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/newsletter"
	"github.com/prologin/gccsite/storage/database"
)

type newsletterRepository struct {
	db *database.DB
}

var _ newsletter.Repository = (*newsletterRepository)(nil) // interface compliance check

func NewNewsletterRepository(db *database.DB) *newsletterRepository {
	return &newsletterRepository{db: db}
}

type subscriberRow struct {
	ID        int       `db:"id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

func (repo newsletterRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return newsletter.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo newsletterRepository) GetSubscriberByID(ctx context.Context, id int, exec ...core.DBExecutor) (newsletter.Subscriber, error) {
	var row subscriberRow
	q := `SELECT * FROM subscribers WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, id); err != nil {
		return newsletter.Subscriber{}, repo.trapNoRowsErr(err, "finding subscriber by ID")
	}
	return newsletter.Subscriber(row), nil
}

func (repo newsletterRepository) GetSubscriberByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (newsletter.Subscriber, error) {
	var row subscriberRow
	q := `SELECT * FROM subscribers WHERE email = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, email); err != nil {
		return newsletter.Subscriber{}, repo.trapNoRowsErr(err, "finding subscriber by email")
	}
	return newsletter.Subscriber(row), nil
}

func (repo newsletterRepository) CreateSubscriber(ctx context.Context, sub newsletter.Subscriber, exec ...core.DBExecutor) (newsletter.Subscriber, error) {
	sub.CreatedAt = time.Now().UTC()
	q := `INSERT INTO subscribers (email, created_at) VALUES ($1, $2) RETURNING id`
	row := getExec(repo.db, exec).QueryRowxContext(ctx, q, sub.Email, sub.CreatedAt)
	if err := row.Scan(&sub.ID); err != nil {
		return newsletter.Subscriber{}, errors.Wrap(err, "inserting subscriber")
	}
	return sub, nil
}

func (repo newsletterRepository) DeleteSubscriber(ctx context.Context, id int, exec ...core.DBExecutor) error {
	q := `DELETE FROM subscribers WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, id)
	if err != nil {
		return errors.Wrap(err, "deleting subscriber")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return newsletter.ErrNotFound
	}
	return nil
}
