package sponsor

import (
	"context"

	"github.com/prologin/gccsite/core"
)

var ErrNotFound = core.NewNotFoundError("sponsor not found")

// Sponsor is a partner organisation shown on the public site.
type Sponsor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
	SiteURL     string `json:"site_url"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	IsActive    bool   `json:"is_active"`
}

type (
	Repository interface {
		GetSponsorByID(ctx context.Context, id string, exec ...core.DBExecutor) (Sponsor, error)
		QueryActiveSponsors(ctx context.Context, exec ...core.DBExecutor) ([]Sponsor, error)
		CreateSponsor(ctx context.Context, s Sponsor, exec ...core.DBExecutor) (Sponsor, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Get(ctx context.Context, id string) (Sponsor, error) {
	return svc.repo.GetSponsorByID(ctx, id)
}

// Active lists the sponsors currently displayed on the site.
func (svc *Service) Active(ctx context.Context) ([]Sponsor, error) {
	return svc.repo.QueryActiveSponsors(ctx)
}

func (svc *Service) Create(ctx context.Context, s Sponsor) (Sponsor, error) {
	s.Name = core.CleanString(s.Name)
	return svc.repo.CreateSponsor(ctx, s)
}
