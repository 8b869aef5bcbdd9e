package inmemdb

import (
	"context"
	"sort"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/form"
)

type formRepository struct {
	db *DB
}

var _ form.Repository = (*formRepository)(nil)

func NewFormRepository(db *DB) *formRepository {
	return &formRepository{db: db}
}

func (repo *formRepository) GetFormByID(ctx context.Context, id string, exec ...core.DBExecutor) (form.Form, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if f, ok := repo.db.forms[id]; ok {
		return *f, nil
	}
	return form.Form{}, form.ErrNotFound
}

func (repo *formRepository) GetFormByName(ctx context.Context, name string, exec ...core.DBExecutor) (form.Form, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, f := range repo.db.forms {
		if f.Name == name {
			return *f, nil
		}
	}
	return form.Form{}, form.ErrNotFound
}

func (repo *formRepository) CreateForm(ctx context.Context, f form.Form, exec ...core.DBExecutor) (form.Form, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if f.ID == "" {
		f.ID = repo.db.nextID()
	}
	repo.db.forms[f.ID] = &f
	return f, nil
}

func (repo *formRepository) GetQuestionByID(ctx context.Context, id string, exec ...core.DBExecutor) (form.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if q, ok := repo.db.questions[id]; ok {
		return *q, nil
	}
	return form.Question{}, form.ErrQuestionNotFound
}

func (repo *formRepository) QueryFormQuestions(ctx context.Context, formID string, exec ...core.DBExecutor) ([]form.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := append([]formItem(nil), repo.db.formItems[formID]...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].order != items[j].order {
			return items[i].order < items[j].order
		}
		return items[i].seq < items[j].seq
	})

	questions := make([]form.Question, 0, len(items))
	for _, item := range items {
		if q, ok := repo.db.questions[item.questionID]; ok {
			questions = append(questions, *q)
		}
	}
	return questions, nil
}

func (repo *formRepository) CreateQuestion(ctx context.Context, q form.Question, exec ...core.DBExecutor) (form.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if q.ID == "" {
		q.ID = repo.db.nextID()
	}
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *formRepository) AppendQuestionToForm(ctx context.Context, formID, questionID string, order int, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.formItems[formID] = append(repo.db.formItems[formID], formItem{
		questionID: questionID,
		order:      order,
		seq:        repo.db.nextPK(),
	})
	return nil
}
