package form

import (
	"context"

	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
)

var (
	ErrNotFound         = core.NewNotFoundError("form not found")
	ErrQuestionNotFound = core.NewNotFoundError("question not found")

	errInvalidAnswerType = errors.New("invalid response type")
)

type (
	Repository interface {
		GetFormByID(ctx context.Context, id string, exec ...core.DBExecutor) (Form, error)
		GetFormByName(ctx context.Context, name string, exec ...core.DBExecutor) (Form, error)
		CreateForm(ctx context.Context, f Form, exec ...core.DBExecutor) (Form, error)
		GetQuestionByID(ctx context.Context, id string, exec ...core.DBExecutor) (Question, error)
		// QueryFormQuestions returns the form's questions ordered by the
		// join-table ordering integer, ties broken by insertion.
		QueryFormQuestions(ctx context.Context, formID string, exec ...core.DBExecutor) ([]Question, error)
		CreateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		AppendQuestionToForm(ctx context.Context, formID, questionID string, order int, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Form, error) {
	return svc.repo.GetFormByID(ctx, id)
}

func (svc *Service) Questions(ctx context.Context, formID string) ([]Question, error) {
	return svc.repo.QueryFormQuestions(ctx, formID)
}

// Fields projects the form's ordered question list onto input-field
// variants, one per question.
func (svc *Service) Fields(ctx context.Context, formID string) ([]Field, error) {
	questions, err := svc.repo.QueryFormQuestions(ctx, formID)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(questions))
	for _, q := range questions {
		fld, err := FieldFor(q)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fld)
	}
	return fields, nil
}

// AddQuestion creates the question and appends it to the form at the
// given ordering position.
func (svc *Service) AddQuestion(ctx context.Context, formID string, q Question, order int) (Question, error) {
	if !q.ResponseType.IsValid() {
		return Question{}, core.NewValidationError(errInvalidAnswerType)
	}
	q.Label = core.CleanString(q.Label)
	q, err := svc.repo.CreateQuestion(ctx, q)
	if err != nil {
		return Question{}, err
	}
	if err = svc.repo.AppendQuestionToForm(ctx, formID, q.ID, order); err != nil {
		return Question{}, err
	}
	return q, nil
}

// GetOrCreateByName returns the named form, creating an empty one when it
// does not exist yet (used by the `newedition` admin command).
func (svc *Service) GetOrCreateByName(ctx context.Context, name string) (Form, error) {
	f, err := svc.repo.GetFormByName(ctx, name)
	if err == nil {
		return f, nil
	}
	if !core.IsNotFound(err) {
		return Form{}, err
	}
	return svc.repo.CreateForm(ctx, Form{Name: name})
}
