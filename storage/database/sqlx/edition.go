package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/storage/database"
)

type editionRepository struct {
	db *database.DB
}

var _ edition.Repository = (*editionRepository)(nil) // interface compliance check

func NewEditionRepository(db *database.DB) *editionRepository {
	return &editionRepository{db: db}
}

type editionRow struct {
	Year         int    `db:"year"`
	SignupFormID string `db:"signup_form_id"`
}

// eventRow joins events with their center.
type eventRow struct {
	ID               string    `db:"id"`
	EditionYear      int       `db:"edition_year"`
	IsLong           bool      `db:"is_long"`
	EventStart       time.Time `db:"event_start"`
	EventEnd         time.Time `db:"event_end"`
	SignupStart      time.Time `db:"signup_start"`
	SignupEnd        time.Time `db:"signup_end"`
	CenterID         string    `db:"center_id"`
	CenterName       string    `db:"center_name"`
	CenterAddress    string    `db:"center_address"`
	CenterCity       string    `db:"center_city"`
	CenterPostalCode string    `db:"center_postal_code"`
}

const eventSelect = `
SELECT e.id, e.edition_year, e.is_long, e.event_start, e.event_end, e.signup_start, e.signup_end,
	c.id AS center_id, c.name AS center_name, c.address AS center_address,
	c.city AS center_city, c.postal_code AS center_postal_code
FROM events e
JOIN centers c ON c.id = e.center_id`

func fromEventRow(row eventRow) edition.Event {
	return edition.Event{
		ID:          row.ID,
		EditionYear: row.EditionYear,
		Center: edition.Center{
			ID:         row.CenterID,
			Name:       row.CenterName,
			Address:    row.CenterAddress,
			City:       row.CenterCity,
			PostalCode: row.CenterPostalCode,
		},
		IsLong:      row.IsLong,
		EventStart:  row.EventStart,
		EventEnd:    row.EventEnd,
		SignupStart: row.SignupStart,
		SignupEnd:   row.SignupEnd,
	}
}

func (repo editionRepository) GetEditionByYear(ctx context.Context, year int, exec ...core.DBExecutor) (edition.Edition, error) {
	var row editionRow
	q := `SELECT * FROM editions WHERE year = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, year); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return edition.Edition{}, edition.ErrNotFound
		}
		return edition.Edition{}, errors.Wrap(err, "finding edition by year")
	}
	return edition.Edition(row), nil
}

func (repo editionRepository) GetCurrentEdition(ctx context.Context, exec ...core.DBExecutor) (edition.Edition, error) {
	var row editionRow
	q := `SELECT * FROM editions ORDER BY year DESC LIMIT 1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return edition.Edition{}, edition.ErrNotFound
		}
		return edition.Edition{}, errors.Wrap(err, "finding current edition")
	}
	return edition.Edition(row), nil
}

func (repo editionRepository) QueryAllEditions(ctx context.Context, exec ...core.DBExecutor) ([]edition.Edition, error) {
	var rows []editionRow
	q := `SELECT * FROM editions ORDER BY year DESC`
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying editions")
	}
	editions := make([]edition.Edition, 0, len(rows))
	for _, row := range rows {
		editions = append(editions, edition.Edition(row))
	}
	return editions, nil
}

func (repo editionRepository) CreateEdition(ctx context.Context, ed edition.Edition, exec ...core.DBExecutor) (edition.Edition, error) {
	q := `INSERT INTO editions (year, signup_form_id) VALUES ($1, $2)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, ed.Year, ed.SignupFormID); err != nil {
		return edition.Edition{}, errors.Wrap(err, "inserting edition")
	}
	return ed, nil
}

func (repo editionRepository) GetEventByID(ctx context.Context, id string, exec ...core.DBExecutor) (edition.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return edition.Event{}, edition.ErrEventNotFound
	}
	var row eventRow
	q := eventSelect + ` WHERE e.id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return edition.Event{}, edition.ErrEventNotFound
		}
		return edition.Event{}, errors.Wrap(err, "finding event by ID")
	}
	return fromEventRow(row), nil
}

func (repo editionRepository) QueryEventsByEdition(ctx context.Context, year int, exec ...core.DBExecutor) ([]edition.Event, error) {
	var rows []eventRow
	q := eventSelect + ` WHERE e.edition_year = $1 ORDER BY e.event_start`
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, q, year); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	events := make([]edition.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, fromEventRow(row))
	}
	return events, nil
}

// CreateEvent registers a session at a center; used by the admin CLI.
func (repo editionRepository) CreateEvent(ctx context.Context, ev edition.Event, exec ...core.DBExecutor) (edition.Event, error) {
	ev.ID = uuid.New().String()
	q := `
INSERT INTO events (id, edition_year, center_id, is_long, event_start, event_end, signup_start, signup_end)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := getExec(repo.db, exec).ExecContext(ctx, q,
		ev.ID, ev.EditionYear, ev.Center.ID, ev.IsLong, ev.EventStart, ev.EventEnd, ev.SignupStart, ev.SignupEnd)
	if err != nil {
		return edition.Event{}, errors.Wrap(err, "inserting event")
	}
	return ev, nil
}

func (repo editionRepository) GetCenterByName(ctx context.Context, name string, exec ...core.DBExecutor) (edition.Center, error) {
	var c edition.Center
	q := `SELECT id, name, address, city, postal_code FROM centers WHERE name = $1`
	row := getExec(repo.db, exec).QueryRowxContext(ctx, q, name)
	if err := row.Scan(&c.ID, &c.Name, &c.Address, &c.City, &c.PostalCode); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return edition.Center{}, edition.ErrCenterNotFound
		}
		return edition.Center{}, errors.Wrap(err, "finding center by name")
	}
	return c, nil
}

func (repo editionRepository) CreateCenter(ctx context.Context, c edition.Center, exec ...core.DBExecutor) (edition.Center, error) {
	c.ID = uuid.New().String()
	q := `INSERT INTO centers (id, name, address, city, postal_code) VALUES ($1, $2, $3, $4, $5)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, c.ID, c.Name, c.Address, c.City, c.PostalCode); err != nil {
		return edition.Center{}, errors.Wrap(err, "inserting center")
	}
	return c, nil
}
