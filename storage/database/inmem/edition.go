package inmemdb

import (
	"context"
	"sort"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/edition"
)

type editionRepository struct {
	db *DB
}

var _ edition.Repository = (*editionRepository)(nil)

func NewEditionRepository(db *DB) *editionRepository {
	return &editionRepository{db: db}
}

func (repo *editionRepository) GetEditionByYear(ctx context.Context, year int, exec ...core.DBExecutor) (edition.Edition, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ed, ok := repo.db.editions[year]; ok {
		return *ed, nil
	}
	return edition.Edition{}, edition.ErrNotFound
}

func (repo *editionRepository) GetCurrentEdition(ctx context.Context, exec ...core.DBExecutor) (edition.Edition, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var current *edition.Edition
	for _, ed := range repo.db.editions {
		if current == nil || ed.Year > current.Year {
			current = ed
		}
	}
	if current == nil {
		return edition.Edition{}, edition.ErrNotFound
	}
	return *current, nil
}

func (repo *editionRepository) QueryAllEditions(ctx context.Context, exec ...core.DBExecutor) ([]edition.Edition, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	editions := make([]edition.Edition, 0, len(repo.db.editions))
	for _, ed := range repo.db.editions {
		editions = append(editions, *ed)
	}
	sort.Slice(editions, func(i, j int) bool { return editions[i].Year > editions[j].Year })
	return editions, nil
}

func (repo *editionRepository) CreateEdition(ctx context.Context, ed edition.Edition, exec ...core.DBExecutor) (edition.Edition, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.editions[ed.Year] = &ed
	return ed, nil
}

func (repo *editionRepository) GetEventByID(ctx context.Context, id string, exec ...core.DBExecutor) (edition.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ev, ok := repo.db.events[id]; ok {
		return *ev, nil
	}
	return edition.Event{}, edition.ErrEventNotFound
}

func (repo *editionRepository) QueryEventsByEdition(ctx context.Context, year int, exec ...core.DBExecutor) ([]edition.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	events := make([]edition.Event, 0)
	for _, ev := range repo.db.events {
		if ev.EditionYear == year {
			events = append(events, *ev)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventStart.Before(events[j].EventStart) })
	return events, nil
}

func (repo *editionRepository) CreateEvent(ctx context.Context, ev edition.Event, exec ...core.DBExecutor) (edition.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if ev.ID == "" {
		ev.ID = repo.db.nextID()
	}
	repo.db.events[ev.ID] = &ev
	return ev, nil
}

func (repo *editionRepository) GetCenterByName(ctx context.Context, name string, exec ...core.DBExecutor) (edition.Center, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.centers {
		if c.Name == name {
			return *c, nil
		}
	}
	return edition.Center{}, edition.ErrCenterNotFound
}

func (repo *editionRepository) CreateCenter(ctx context.Context, c edition.Center, exec ...core.DBExecutor) (edition.Center, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if c.ID == "" {
		c.ID = repo.db.nextID()
	}
	repo.db.centers[c.ID] = &c
	return c, nil
}
