package inmemdb

import (
	"context"
	"sort"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/review"
)

type reviewRepository struct {
	db *DB
}

var _ review.Repository = (*reviewRepository)(nil)

func NewReviewRepository(db *DB) *reviewRepository {
	return &reviewRepository{db: db}
}

func (repo *reviewRepository) GetLabelByID(ctx context.Context, id string, exec ...core.DBExecutor) (review.Label, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if l, ok := repo.db.labels[id]; ok {
		return *l, nil
	}
	return review.Label{}, review.ErrLabelNotFound
}

func (repo *reviewRepository) QueryAllLabels(ctx context.Context, exec ...core.DBExecutor) ([]review.Label, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	labels := make([]review.Label, 0, len(repo.db.labels))
	for _, l := range repo.db.labels {
		labels = append(labels, *l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Display < labels[j].Display })
	return labels, nil
}

func (repo *reviewRepository) CreateLabel(ctx context.Context, label review.Label, exec ...core.DBExecutor) (review.Label, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if label.ID == "" {
		label.ID = repo.db.nextID()
	}
	repo.db.labels[label.ID] = &label
	return label, nil
}

func (repo *reviewRepository) IsCorrector(ctx context.Context, userID int, eventIDs []string, exec ...core.DBExecutor) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.correctors {
		if c.UserID != userID {
			continue
		}
		for _, id := range eventIDs {
			if c.EventID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (repo *reviewRepository) CreateCorrector(ctx context.Context, c review.Corrector, exec ...core.DBExecutor) (review.Corrector, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if c.ID == "" {
		c.ID = repo.db.nextID()
	}
	repo.db.correctors[c.ID] = &c
	return c, nil
}

func (repo *reviewRepository) QueryCorrectorEvents(ctx context.Context, userID int, exec ...core.DBExecutor) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	eventIDs := make([]string, 0)
	for _, c := range repo.db.correctors {
		if c.UserID == userID {
			eventIDs = append(eventIDs, c.EventID)
		}
	}
	sort.Strings(eventIDs)
	return eventIDs, nil
}
