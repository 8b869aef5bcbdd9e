package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/storage/database"
)

type reviewRepository struct {
	db *database.DB
}

var _ review.Repository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *database.DB) *reviewRepository {
	return &reviewRepository{db: db}
}

func (repo reviewRepository) GetLabelByID(ctx context.Context, id string, exec ...core.DBExecutor) (review.Label, error) {
	if _, err := uuid.Parse(id); err != nil {
		return review.Label{}, review.ErrLabelNotFound
	}
	var l review.Label
	q := `SELECT id, display FROM labels WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &l, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return review.Label{}, review.ErrLabelNotFound
		}
		return review.Label{}, errors.Wrap(err, "finding label by ID")
	}
	return l, nil
}

func (repo reviewRepository) QueryAllLabels(ctx context.Context, exec ...core.DBExecutor) ([]review.Label, error) {
	var labels []review.Label
	q := `SELECT id, display FROM labels ORDER BY display`
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &labels, q); err != nil {
		return nil, errors.Wrap(err, "querying labels")
	}
	return labels, nil
}

func (repo reviewRepository) CreateLabel(ctx context.Context, label review.Label, exec ...core.DBExecutor) (review.Label, error) {
	label.ID = uuid.New().String()
	q := `INSERT INTO labels (id, display) VALUES ($1, $2)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, label.ID, label.Display); err != nil {
		return review.Label{}, errors.Wrap(err, "inserting label")
	}
	return label, nil
}

func (repo reviewRepository) IsCorrector(ctx context.Context, userID int, eventIDs []string, exec ...core.DBExecutor) (bool, error) {
	if len(eventIDs) == 0 {
		return false, nil
	}
	q, args, err := sqlx.In(`SELECT EXISTS (SELECT 1 FROM correctors WHERE user_id = ? AND event_id IN (?))`, userID, eventIDs)
	if err != nil {
		return false, errors.Wrap(err, "building corrector query")
	}
	exe := getExec(repo.db, exec)
	q = exe.Rebind(q)

	var exists bool
	if err := sqlx.GetContext(ctx, exe, &exists, q, args...); err != nil {
		return false, errors.Wrap(err, "checking corrector")
	}
	return exists, nil
}

func (repo reviewRepository) CreateCorrector(ctx context.Context, c review.Corrector, exec ...core.DBExecutor) (review.Corrector, error) {
	c.ID = uuid.New().String()
	q := `INSERT INTO correctors (id, event_id, user_id) VALUES ($1, $2, $3)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, c.ID, c.EventID, c.UserID); err != nil {
		return review.Corrector{}, errors.Wrap(err, "inserting corrector")
	}
	return c, nil
}

func (repo reviewRepository) QueryCorrectorEvents(ctx context.Context, userID int, exec ...core.DBExecutor) ([]string, error) {
	var eventIDs []string
	q := `SELECT event_id FROM correctors WHERE user_id = $1`
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &eventIDs, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying corrector events")
	}
	return eventIDs, nil
}
