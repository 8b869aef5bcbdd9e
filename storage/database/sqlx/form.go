package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/form"
	"github.com/prologin/gccsite/storage/database"
)

type formRepository struct {
	db *database.DB
}

var _ form.Repository = (*formRepository)(nil) // interface compliance check

func NewFormRepository(db *database.DB) *formRepository {
	return &formRepository{db: db}
}

type questionRow struct {
	ID              string      `db:"id"`
	Label           string      `db:"label"`
	Comment         null.String `db:"comment"`
	ResponseType    int         `db:"response_type"`
	AlwaysRequired  bool        `db:"always_required"`
	FinallyRequired bool        `db:"finally_required"`
	Meta            []byte      `db:"meta"`
}

func (repo formRepository) fromQuestionRow(row questionRow) (form.Question, error) {
	q := form.Question{
		ID:              row.ID,
		Label:           row.Label,
		Comment:         row.Comment.String,
		ResponseType:    form.AnswerType(row.ResponseType),
		AlwaysRequired:  row.AlwaysRequired,
		FinallyRequired: row.FinallyRequired,
	}
	if len(row.Meta) > 0 {
		if err := json.Unmarshal(row.Meta, &q.Meta); err != nil {
			return form.Question{}, errors.Wrap(err, "decoding question meta")
		}
	}
	return q, nil
}

func (repo formRepository) GetFormByID(ctx context.Context, id string, exec ...core.DBExecutor) (form.Form, error) {
	if _, err := uuid.Parse(id); err != nil {
		return form.Form{}, form.ErrNotFound
	}
	var f form.Form
	q := `SELECT id, name FROM forms WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &f, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return form.Form{}, form.ErrNotFound
		}
		return form.Form{}, errors.Wrap(err, "finding form by ID")
	}
	return f, nil
}

func (repo formRepository) GetFormByName(ctx context.Context, name string, exec ...core.DBExecutor) (form.Form, error) {
	var f form.Form
	q := `SELECT id, name FROM forms WHERE name = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &f, q, name); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return form.Form{}, form.ErrNotFound
		}
		return form.Form{}, errors.Wrap(err, "finding form by name")
	}
	return f, nil
}

func (repo formRepository) CreateForm(ctx context.Context, f form.Form, exec ...core.DBExecutor) (form.Form, error) {
	f.ID = uuid.New().String()
	q := `INSERT INTO forms (id, name) VALUES ($1, $2)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, f.ID, f.Name); err != nil {
		return form.Form{}, errors.Wrap(err, "inserting form")
	}
	return f, nil
}

func (repo formRepository) GetQuestionByID(ctx context.Context, id string, exec ...core.DBExecutor) (form.Question, error) {
	if _, err := uuid.Parse(id); err != nil {
		return form.Question{}, form.ErrQuestionNotFound
	}
	var row questionRow
	q := `SELECT * FROM questions WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return form.Question{}, form.ErrQuestionNotFound
		}
		return form.Question{}, errors.Wrap(err, "finding question by ID")
	}
	return repo.fromQuestionRow(row)
}

func (repo formRepository) QueryFormQuestions(ctx context.Context, formID string, exec ...core.DBExecutor) ([]form.Question, error) {
	var rows []questionRow
	q := `
SELECT q.* FROM questions q
JOIN form_questions fq ON fq.question_id = q.id
WHERE fq.form_id = $1
ORDER BY fq.ordering, fq.created_at`
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, q, formID); err != nil {
		return nil, errors.Wrap(err, "querying form questions")
	}
	questions := make([]form.Question, 0, len(rows))
	for _, row := range rows {
		question, err := repo.fromQuestionRow(row)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, nil
}

func (repo formRepository) CreateQuestion(ctx context.Context, qn form.Question, exec ...core.DBExecutor) (form.Question, error) {
	qn.ID = uuid.New().String()
	meta, err := json.Marshal(qn.Meta)
	if err != nil {
		return form.Question{}, errors.Wrap(err, "encoding question meta")
	}
	q := `
INSERT INTO questions (id, label, comment, response_type, always_required, finally_required, meta)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = getExec(repo.db, exec).ExecContext(ctx, q,
		qn.ID, qn.Label, null.NewString(qn.Comment, qn.Comment != ""), int(qn.ResponseType),
		qn.AlwaysRequired, qn.FinallyRequired, meta)
	if err != nil {
		return form.Question{}, errors.Wrap(err, "inserting question")
	}
	return qn, nil
}

func (repo formRepository) AppendQuestionToForm(ctx context.Context, formID, questionID string, order int, exec ...core.DBExecutor) error {
	q := `INSERT INTO form_questions (form_id, question_id, ordering) VALUES ($1, $2, $3)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, formID, questionID, order); err != nil {
		return errors.Wrap(err, "appending question to form")
	}
	return nil
}
