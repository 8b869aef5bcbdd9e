package inmemdb

import (
	"context"
	"time"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/newsletter"
)

type newsletterRepository struct {
	db *DB
}

var _ newsletter.Repository = (*newsletterRepository)(nil)

func NewNewsletterRepository(db *DB) *newsletterRepository {
	return &newsletterRepository{db: db}
}

func (repo *newsletterRepository) GetSubscriberByID(ctx context.Context, id int, exec ...core.DBExecutor) (newsletter.Subscriber, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sub, ok := repo.db.subscribers[id]; ok {
		return *sub, nil
	}
	return newsletter.Subscriber{}, newsletter.ErrNotFound
}

func (repo *newsletterRepository) GetSubscriberByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (newsletter.Subscriber, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sub := range repo.db.subscribers {
		if sub.Email == email {
			return *sub, nil
		}
	}
	return newsletter.Subscriber{}, newsletter.ErrNotFound
}

func (repo *newsletterRepository) CreateSubscriber(ctx context.Context, sub newsletter.Subscriber, exec ...core.DBExecutor) (newsletter.Subscriber, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sub.ID = repo.db.nextPK()
	sub.CreatedAt = time.Now().UTC()
	repo.db.subscribers[sub.ID] = &sub
	return sub, nil
}

func (repo *newsletterRepository) DeleteSubscriber(ctx context.Context, id int, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.subscribers[id]; !ok {
		return newsletter.ErrNotFound
	}
	delete(repo.db.subscribers, id)
	return nil
}
