package inmemdb

import (
	"context"
	"sort"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/review"
)

type applicantRepository struct {
	db *DB
}

var _ applicant.Repository = (*applicantRepository)(nil)

func NewApplicantRepository(db *DB) *applicantRepository {
	return &applicantRepository{db: db}
}

// load must be called with at least the read lock held.
func (repo *applicantRepository) load(app applicant.Applicant) applicant.Applicant {
	if usr, ok := repo.db.users[app.User.ID]; ok {
		app.User = *usr
	}

	wishes := make([]applicant.EventWish, 0)
	for _, w := range repo.db.wishes {
		if w.ApplicantID == app.ID {
			wish := *w
			if ev, ok := repo.db.events[wish.Event.ID]; ok {
				wish.Event = *ev
			}
			wishes = append(wishes, wish)
		}
	}
	sort.Slice(wishes, func(i, j int) bool { return wishes[i].Order < wishes[j].Order })
	app.Wishes = wishes

	labels := make([]review.Label, 0, len(app.Labels))
	for _, l := range app.Labels {
		if cur, ok := repo.db.labels[l.ID]; ok {
			labels = append(labels, *cur)
		}
	}
	app.Labels = labels
	return app
}

func (repo *applicantRepository) GetApplicantByID(ctx context.Context, id string, exec ...core.DBExecutor) (applicant.Applicant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if app, ok := repo.db.applicants[id]; ok {
		return repo.load(*app), nil
	}
	return applicant.Applicant{}, applicant.ErrNotFound
}

func (repo *applicantRepository) GetApplicantForUserAndEdition(ctx context.Context, userID, year int, exec ...core.DBExecutor) (applicant.Applicant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, app := range repo.db.applicants {
		if app.User.ID == userID && app.EditionYear == year {
			return repo.load(*app), nil
		}
	}
	return applicant.Applicant{}, applicant.ErrNotFound
}

func (repo *applicantRepository) CreateApplicant(ctx context.Context, app applicant.Applicant, exec ...core.DBExecutor) (applicant.Applicant, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if app.ID == "" {
		app.ID = repo.db.nextID()
	}
	stored := app
	repo.db.applicants[app.ID] = &stored
	return repo.load(app), nil
}

func (repo *applicantRepository) QueryApplicantsForEventStatus(ctx context.Context, eventID string, status applicant.Status, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]applicant.Applicant, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]applicant.Applicant, 0)
	for _, w := range repo.db.wishes {
		if w.Event.ID != eventID || w.Status != status {
			continue
		}
		if app, ok := repo.db.applicants[w.ApplicantID]; ok {
			apps = append(apps, repo.load(*app))
		}
	}

	// only the first ordering is honored in memory
	less := func(a, b applicant.Applicant) bool { return a.ID < b.ID }
	if len(ordering) > 0 {
		ord := ordering[0]
		if ord.Field == "username" {
			less = func(a, b applicant.Applicant) bool { return a.User.Username < b.User.Username }
		}
		if !ord.Ascending {
			asc := less
			less = func(a, b applicant.Applicant) bool { return asc(b, a) }
		}
	}
	sort.Slice(apps, func(i, j int) bool { return less(apps[i], apps[j]) })
	return apps, nil
}

func (repo *applicantRepository) CountWishesForEventStatus(ctx context.Context, eventID string, status applicant.Status, exec ...core.DBExecutor) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	count := 0
	for _, w := range repo.db.wishes {
		if w.Event.ID == eventID && w.Status == status {
			count++
		}
	}
	return count, nil
}

func (repo *applicantRepository) GetWishByID(ctx context.Context, id string, exec ...core.DBExecutor) (applicant.EventWish, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if w, ok := repo.db.wishes[id]; ok {
		wish := *w
		if ev, ok := repo.db.events[wish.Event.ID]; ok {
			wish.Event = *ev
		}
		return wish, nil
	}
	return applicant.EventWish{}, applicant.ErrWishNotFound
}

func (repo *applicantRepository) CreateWish(ctx context.Context, wish applicant.EventWish, exec ...core.DBExecutor) (applicant.EventWish, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if wish.ID == "" {
		wish.ID = repo.db.nextID()
	}
	repo.db.wishes[wish.ID] = &wish
	return wish, nil
}

func (repo *applicantRepository) UpdateWishOrder(ctx context.Context, wishID string, order int, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	w, ok := repo.db.wishes[wishID]
	if !ok {
		return applicant.ErrWishNotFound
	}
	w.Order = order
	return nil
}

func (repo *applicantRepository) UpdateWishStatus(ctx context.Context, wishID string, status applicant.Status, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	w, ok := repo.db.wishes[wishID]
	if !ok {
		return applicant.ErrWishNotFound
	}
	w.Status = status
	return nil
}

func (repo *applicantRepository) DeleteWish(ctx context.Context, wishID string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.wishes, wishID)
	return nil
}

func (repo *applicantRepository) QueryAnswers(ctx context.Context, applicantID string, exec ...core.DBExecutor) ([]applicant.Answer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	answers := make([]applicant.Answer, 0)
	for _, ans := range repo.db.answers {
		if ans.ApplicantID == applicantID {
			a := *ans
			if q, ok := repo.db.questions[a.Question.ID]; ok {
				a.Question = *q
			}
			answers = append(answers, a)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	return answers, nil
}

func (repo *applicantRepository) UpsertAnswer(ctx context.Context, ans applicant.Answer, exec ...core.DBExecutor) (applicant.Answer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, cur := range repo.db.answers {
		if cur.ApplicantID == ans.ApplicantID && cur.Question.ID == ans.Question.ID {
			cur.Response = ans.Response
			return *cur, nil
		}
	}
	if ans.ID == "" {
		ans.ID = repo.db.nextID()
	}
	repo.db.answers[ans.ID] = &ans
	return ans, nil
}

func (repo *applicantRepository) AddLabel(ctx context.Context, applicantID, labelID string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	app, ok := repo.db.applicants[applicantID]
	if !ok {
		return applicant.ErrNotFound
	}
	for _, l := range app.Labels {
		if l.ID == labelID {
			return nil
		}
	}
	label, ok := repo.db.labels[labelID]
	if !ok {
		return review.ErrLabelNotFound
	}
	app.Labels = append(app.Labels, *label)
	return nil
}

func (repo *applicantRepository) RemoveLabel(ctx context.Context, applicantID, labelID string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	app, ok := repo.db.applicants[applicantID]
	if !ok {
		return applicant.ErrNotFound
	}
	labels := app.Labels[:0]
	for _, l := range app.Labels {
		if l.ID != labelID {
			labels = append(labels, l)
		}
	}
	app.Labels = labels
	return nil
}
