package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/storage/database"
)

type applicantRepository struct {
	db    *database.DB
	users *userRepository
	forms *formRepository
}

var _ applicant.Repository = (*applicantRepository)(nil) // interface compliance check

func NewApplicantRepository(db *database.DB) *applicantRepository {
	return &applicantRepository{
		db:    db,
		users: NewUserRepository(db),
		forms: NewFormRepository(db),
	}
}

type applicantRow struct {
	ID          string `db:"id"`
	UserID      int    `db:"user_id"`
	EditionYear int    `db:"edition_year"`
}

// wishRow joins event_wishes with the wished event and its center.
type wishRow struct {
	WishID      string `db:"wish_id"`
	ApplicantID string `db:"applicant_id"`
	Status      int    `db:"status"`
	Ordering    int    `db:"ordering"`
	eventRow
}

const wishSelect = `
SELECT w.id AS wish_id, w.applicant_id, w.status, w.ordering,
	e.id, e.edition_year, e.is_long, e.event_start, e.event_end, e.signup_start, e.signup_end,
	c.id AS center_id, c.name AS center_name, c.address AS center_address,
	c.city AS center_city, c.postal_code AS center_postal_code
FROM event_wishes w
JOIN events e ON e.id = w.event_id
JOIN centers c ON c.id = e.center_id`

func fromWishRow(row wishRow) applicant.EventWish {
	return applicant.EventWish{
		ID:          row.WishID,
		ApplicantID: row.ApplicantID,
		Event:       fromEventRow(row.eventRow),
		Status:      applicant.Status(row.Status),
		Order:       row.Ordering,
	}
}

type answerRow struct {
	ID          string `db:"id"`
	ApplicantID string `db:"applicant_id"`
	QuestionID  string `db:"question_id"`
	Response    []byte `db:"response"`
}

// trapNoRowsErr maps psql "no rows" err to applicant.ErrNotFound
func (repo applicantRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return applicant.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// load hydrates the aggregate: owner, wishes (priority order) and labels.
func (repo applicantRepository) load(ctx context.Context, row applicantRow, exec []core.DBExecutor) (applicant.Applicant, error) {
	usr, err := repo.users.GetUserByID(ctx, row.UserID, exec...)
	if err != nil {
		return applicant.Applicant{}, err
	}
	exe := getExec(repo.db, exec)

	var wishRows []wishRow
	q := wishSelect + ` WHERE w.applicant_id = $1 ORDER BY w.ordering`
	if err := sqlx.SelectContext(ctx, exe, &wishRows, q, row.ID); err != nil {
		return applicant.Applicant{}, errors.Wrap(err, "querying wishes")
	}
	wishes := make([]applicant.EventWish, 0, len(wishRows))
	for _, wr := range wishRows {
		wishes = append(wishes, fromWishRow(wr))
	}

	var labels []review.Label
	q = `
SELECT l.id, l.display FROM labels l
JOIN applicant_labels al ON al.label_id = l.id
WHERE al.applicant_id = $1
ORDER BY l.display`
	if err := sqlx.SelectContext(ctx, exe, &labels, q, row.ID); err != nil {
		return applicant.Applicant{}, errors.Wrap(err, "querying applicant labels")
	}

	return applicant.Applicant{
		ID:          row.ID,
		User:        usr,
		EditionYear: row.EditionYear,
		Wishes:      wishes,
		Labels:      labels,
	}, nil
}

func (repo applicantRepository) GetApplicantByID(ctx context.Context, id string, exec ...core.DBExecutor) (applicant.Applicant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return applicant.Applicant{}, applicant.ErrNotFound
	}
	var row applicantRow
	q := `SELECT * FROM applicants WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, id); err != nil {
		return applicant.Applicant{}, repo.trapNoRowsErr(err, "finding applicant by ID")
	}
	return repo.load(ctx, row, exec)
}

func (repo applicantRepository) GetApplicantForUserAndEdition(ctx context.Context, userID, year int, exec ...core.DBExecutor) (applicant.Applicant, error) {
	var row applicantRow
	q := `SELECT * FROM applicants WHERE user_id = $1 AND edition_year = $2`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, userID, year); err != nil {
		return applicant.Applicant{}, repo.trapNoRowsErr(err, "finding applicant for user and edition")
	}
	return repo.load(ctx, row, exec)
}

func (repo applicantRepository) CreateApplicant(ctx context.Context, app applicant.Applicant, exec ...core.DBExecutor) (applicant.Applicant, error) {
	app.ID = uuid.New().String()
	q := `INSERT INTO applicants (id, user_id, edition_year) VALUES ($1, $2, $3)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, app.ID, app.User.ID, app.EditionYear); err != nil {
		return applicant.Applicant{}, errors.Wrap(err, "inserting applicant")
	}
	return app, nil
}

// applicantSortColumns maps the accepted ordering fields to the columns
// of the listing query; unknown fields are skipped.
var applicantSortColumns = map[string]string{
	"id":       "a.id",
	"username": "u.username",
}

func (repo applicantRepository) QueryApplicantsForEventStatus(ctx context.Context, eventID string, status applicant.Status, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]applicant.Applicant, error) {
	cols := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := applicantSortColumns[ord.Field]
		if !ok {
			continue
		}
		ord.Field = col
		cols = append(cols, ord.String())
	}
	if len(cols) == 0 {
		cols = []string{"a.id"}
	}

	var rows []applicantRow
	q := `
SELECT a.* FROM applicants a
JOIN event_wishes w ON w.applicant_id = a.id
JOIN users u ON u.id = a.user_id
WHERE w.event_id = $1 AND w.status = $2
ORDER BY ` + strings.Join(cols, ", ")
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, q, eventID, int(status)); err != nil {
		return nil, errors.Wrap(err, "querying applicants for event")
	}
	apps := make([]applicant.Applicant, 0, len(rows))
	for _, row := range rows {
		app, err := repo.load(ctx, row, exec)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (repo applicantRepository) CountWishesForEventStatus(ctx context.Context, eventID string, status applicant.Status, exec ...core.DBExecutor) (int, error) {
	var count int
	q := `SELECT COUNT(*) FROM event_wishes WHERE event_id = $1 AND status = $2`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &count, q, eventID, int(status)); err != nil {
		return 0, errors.Wrap(err, "counting wishes for event")
	}
	return count, nil
}

func (repo applicantRepository) GetWishByID(ctx context.Context, id string, exec ...core.DBExecutor) (applicant.EventWish, error) {
	if _, err := uuid.Parse(id); err != nil {
		return applicant.EventWish{}, applicant.ErrWishNotFound
	}
	var row wishRow
	q := wishSelect + ` WHERE w.id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return applicant.EventWish{}, applicant.ErrWishNotFound
		}
		return applicant.EventWish{}, errors.Wrap(err, "finding wish by ID")
	}
	return fromWishRow(row), nil
}

func (repo applicantRepository) CreateWish(ctx context.Context, wish applicant.EventWish, exec ...core.DBExecutor) (applicant.EventWish, error) {
	wish.ID = uuid.New().String()
	q := `INSERT INTO event_wishes (id, applicant_id, event_id, status, ordering) VALUES ($1, $2, $3, $4, $5)`
	_, err := getExec(repo.db, exec).ExecContext(ctx, q, wish.ID, wish.ApplicantID, wish.Event.ID, int(wish.Status), wish.Order)
	if err != nil {
		return applicant.EventWish{}, errors.Wrap(err, "inserting wish")
	}
	return wish, nil
}

func (repo applicantRepository) UpdateWishOrder(ctx context.Context, wishID string, order int, exec ...core.DBExecutor) error {
	q := `UPDATE event_wishes SET ordering = $2 WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, wishID, order)
	if err != nil {
		return errors.Wrap(err, "updating wish order")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return applicant.ErrWishNotFound
	}
	return nil
}

func (repo applicantRepository) UpdateWishStatus(ctx context.Context, wishID string, status applicant.Status, exec ...core.DBExecutor) error {
	q := `UPDATE event_wishes SET status = $2 WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, wishID, int(status))
	if err != nil {
		return errors.Wrap(err, "updating wish status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return applicant.ErrWishNotFound
	}
	return nil
}

func (repo applicantRepository) DeleteWish(ctx context.Context, wishID string, exec ...core.DBExecutor) error {
	q := `DELETE FROM event_wishes WHERE id = $1`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, wishID); err != nil {
		return errors.Wrap(err, "deleting wish")
	}
	return nil
}

func (repo applicantRepository) QueryAnswers(ctx context.Context, applicantID string, exec ...core.DBExecutor) ([]applicant.Answer, error) {
	var rows []answerRow
	q := `SELECT id, applicant_id, question_id, response FROM answers WHERE applicant_id = $1`
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, q, applicantID); err != nil {
		return nil, errors.Wrap(err, "querying answers")
	}

	answers := make([]applicant.Answer, 0, len(rows))
	for _, row := range rows {
		question, err := repo.forms.GetQuestionByID(ctx, row.QuestionID, exec...)
		if err != nil {
			return nil, err
		}
		ans := applicant.Answer{
			ID:          row.ID,
			ApplicantID: row.ApplicantID,
			Question:    question,
		}
		if len(row.Response) > 0 {
			if err := json.Unmarshal(row.Response, &ans.Response); err != nil {
				return nil, errors.Wrap(err, "decoding answer response")
			}
		}
		answers = append(answers, ans)
	}
	return answers, nil
}

func (repo applicantRepository) UpsertAnswer(ctx context.Context, ans applicant.Answer, exec ...core.DBExecutor) (applicant.Answer, error) {
	response, err := json.Marshal(ans.Response)
	if err != nil {
		return applicant.Answer{}, errors.Wrap(err, "encoding answer response")
	}
	if ans.ID == "" {
		ans.ID = uuid.New().String()
	}
	q := `
INSERT INTO answers (id, applicant_id, question_id, response, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (applicant_id, question_id) DO UPDATE SET
	response = EXCLUDED.response,
	updated_at = EXCLUDED.updated_at`
	_, err = getExec(repo.db, exec).ExecContext(ctx, q, ans.ID, ans.ApplicantID, ans.Question.ID, response, time.Now().UTC())
	if err != nil {
		return applicant.Answer{}, errors.Wrap(err, "upserting answer")
	}
	return ans, nil
}

func (repo applicantRepository) AddLabel(ctx context.Context, applicantID, labelID string, exec ...core.DBExecutor) error {
	q := `INSERT INTO applicant_labels (applicant_id, label_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, applicantID, labelID); err != nil {
		return errors.Wrap(err, "attaching label")
	}
	return nil
}

func (repo applicantRepository) RemoveLabel(ctx context.Context, applicantID, labelID string, exec ...core.DBExecutor) error {
	q := `DELETE FROM applicant_labels WHERE applicant_id = $1 AND label_id = $2`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, applicantID, labelID); err != nil {
		return errors.Wrap(err, "detaching label")
	}
	return nil
}
