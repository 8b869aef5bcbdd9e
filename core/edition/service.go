package edition

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
)

var (
	ErrNotFound       = core.NewNotFoundError("edition not found")
	ErrEventNotFound  = core.NewNotFoundError("event not found")
	ErrCenterNotFound = core.NewNotFoundError("center not found")
	ErrYearExists     = core.NewConflictError("an edition already exists for this year")

	errInvalidWindow = errors.New("event and signup windows must end after they start")
)

type (
	Repository interface {
		GetEditionByYear(ctx context.Context, year int, exec ...core.DBExecutor) (Edition, error)
		// GetCurrentEdition returns the edition with the greatest year.
		GetCurrentEdition(ctx context.Context, exec ...core.DBExecutor) (Edition, error)
		QueryAllEditions(ctx context.Context, exec ...core.DBExecutor) ([]Edition, error)
		CreateEdition(ctx context.Context, ed Edition, exec ...core.DBExecutor) (Edition, error)
		GetEventByID(ctx context.Context, id string, exec ...core.DBExecutor) (Event, error)
		QueryEventsByEdition(ctx context.Context, year int, exec ...core.DBExecutor) ([]Event, error)
		CreateEvent(ctx context.Context, ev Event, exec ...core.DBExecutor) (Event, error)
		GetCenterByName(ctx context.Context, name string, exec ...core.DBExecutor) (Center, error)
		CreateCenter(ctx context.Context, c Center, exec ...core.DBExecutor) (Center, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByYear(ctx context.Context, year int) (Edition, error) {
	return svc.repo.GetEditionByYear(ctx, year)
}

func (svc *Service) Current(ctx context.Context) (Edition, error) {
	return svc.repo.GetCurrentEdition(ctx)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Edition, error) {
	return svc.repo.QueryAllEditions(ctx)
}

// Create registers a new yearly edition; at most one per year.
func (svc *Service) Create(ctx context.Context, ed Edition) (Edition, error) {
	if _, err := svc.repo.GetEditionByYear(ctx, ed.Year); err == nil {
		return Edition{}, ErrYearExists
	} else if !core.IsNotFound(err) {
		return Edition{}, err
	}
	return svc.repo.CreateEdition(ctx, ed)
}

func (svc *Service) GetEvent(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

func (svc *Service) QueryEvents(ctx context.Context, year int) ([]Event, error) {
	return svc.repo.QueryEventsByEdition(ctx, year)
}

// CreateEvent schedules a session at a center within an edition.
func (svc *Service) CreateEvent(ctx context.Context, ev Event) (Event, error) {
	if _, err := svc.repo.GetEditionByYear(ctx, ev.EditionYear); err != nil {
		return Event{}, err
	}
	if ev.EventEnd.Before(ev.EventStart) || ev.SignupEnd.Before(ev.SignupStart) {
		return Event{}, core.NewValidationError(errInvalidWindow)
	}
	return svc.repo.CreateEvent(ctx, ev)
}

// GetOrCreateCenter returns the named center, creating it on first use.
func (svc *Service) GetOrCreateCenter(ctx context.Context, c Center) (Center, error) {
	existing, err := svc.repo.GetCenterByName(ctx, core.CleanString(c.Name))
	if err == nil {
		return existing, nil
	}
	if !core.IsNotFound(err) {
		return Center{}, err
	}
	c.Name = core.CleanString(c.Name)
	return svc.repo.CreateCenter(ctx, c)
}

// OpenEvents lists the edition's events whose signup window contains `at`,
// ordered by event start.
func (svc *Service) OpenEvents(ctx context.Context, year int, at time.Time) ([]Event, error) {
	events, err := svc.repo.QueryEventsByEdition(ctx, year)
	if err != nil {
		return nil, err
	}
	open := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.IsOpenForSignup(at) {
			open = append(open, ev)
		}
	}
	return open, nil
}

// SubscriptionIsOpen reports whether at least one event of the edition is
// still open for signup.
func (svc *Service) SubscriptionIsOpen(ctx context.Context, year int, at time.Time) (bool, error) {
	open, err := svc.OpenEvents(ctx, year, at)
	if err != nil {
		return false, err
	}
	return len(open) > 0, nil
}
