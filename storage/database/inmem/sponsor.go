package inmemdb

import (
	"context"
	"sort"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/sponsor"
)

type sponsorRepository struct {
	db *DB
}

var _ sponsor.Repository = (*sponsorRepository)(nil)

func NewSponsorRepository(db *DB) *sponsorRepository {
	return &sponsorRepository{db: db}
}

func (repo *sponsorRepository) GetSponsorByID(ctx context.Context, id string, exec ...core.DBExecutor) (sponsor.Sponsor, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.sponsors[id]; ok {
		return *s, nil
	}
	return sponsor.Sponsor{}, sponsor.ErrNotFound
}

func (repo *sponsorRepository) QueryActiveSponsors(ctx context.Context, exec ...core.DBExecutor) ([]sponsor.Sponsor, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sponsors := make([]sponsor.Sponsor, 0)
	for _, s := range repo.db.sponsors {
		if s.IsActive {
			sponsors = append(sponsors, *s)
		}
	}
	sort.Slice(sponsors, func(i, j int) bool { return sponsors[i].Name < sponsors[j].Name })
	return sponsors, nil
}

func (repo *sponsorRepository) CreateSponsor(ctx context.Context, s sponsor.Sponsor, exec ...core.DBExecutor) (sponsor.Sponsor, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if s.ID == "" {
		s.ID = repo.db.nextID()
	}
	repo.db.sponsors[s.ID] = &s
	return s, nil
}
