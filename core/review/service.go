package review

import (
	"context"

	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
)

// maxLabelLen keeps labels short enough to render as badges.
const maxLabelLen = 10

var (
	ErrLabelNotFound     = core.NewNotFoundError("label does not exist")
	ErrCorrectorNotFound = core.NewNotFoundError("corrector not found")
	ErrCorrectorExists   = core.NewConflictError("user is already a corrector for this event")

	errLabelTooLong = errors.Errorf("label display must not exceed %d characters", maxLabelLen)
)

type (
	Repository interface {
		GetLabelByID(ctx context.Context, id string, exec ...core.DBExecutor) (Label, error)
		QueryAllLabels(ctx context.Context, exec ...core.DBExecutor) ([]Label, error)
		CreateLabel(ctx context.Context, label Label, exec ...core.DBExecutor) (Label, error)
		IsCorrector(ctx context.Context, userID int, eventIDs []string, exec ...core.DBExecutor) (bool, error)
		CreateCorrector(ctx context.Context, c Corrector, exec ...core.DBExecutor) (Corrector, error)
		QueryCorrectorEvents(ctx context.Context, userID int, exec ...core.DBExecutor) ([]string, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetLabel(ctx context.Context, id string) (Label, error) {
	return svc.repo.GetLabelByID(ctx, id)
}

func (svc *Service) QueryLabels(ctx context.Context) ([]Label, error) {
	return svc.repo.QueryAllLabels(ctx)
}

func (svc *Service) CreateLabel(ctx context.Context, display string) (Label, error) {
	display = core.CleanString(display)
	if len([]rune(display)) > maxLabelLen {
		return Label{}, core.NewValidationError(errLabelTooLong)
	}
	return svc.repo.CreateLabel(ctx, Label{Display: display})
}

// AddCorrector grants review permission on an event to a user.
func (svc *Service) AddCorrector(ctx context.Context, userID int, eventID string) (Corrector, error) {
	ok, err := svc.repo.IsCorrector(ctx, userID, []string{eventID})
	if err != nil {
		return Corrector{}, err
	}
	if ok {
		return Corrector{}, ErrCorrectorExists
	}
	return svc.repo.CreateCorrector(ctx, Corrector{EventID: eventID, UserID: userID})
}
