package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/prologin/gccsite/core"
)

var ErrNotFound = core.NewNotFoundError("user not found")

type (
	Repository interface {
		GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (User, error)
		GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (User, error)
		UpsertUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

// SyncFromOAuth creates or refreshes the local record for a user who just
// authenticated against the identity provider. Only provider-owned fields
// are synced; locally-edited profile fields are left alone.
func (svc *Service) SyncFromOAuth(ctx context.Context, ou OAuthUser) (User, error) {
	now := time.Now().UTC()

	usr, err := svc.repo.GetUserByID(ctx, ou.ID)
	if err != nil {
		if !core.IsNotFound(err) {
			return User{}, err
		}
		usr = User{
			ID:           ou.ID,
			FirstName:    ou.FirstName,
			LastName:     ou.LastName,
			AllowMailing: true,
			CreatedAt:    now,
		}
	}
	usr.Username = ou.Username
	usr.Email = core.CleanString(ou.Email, true /* lower */)
	usr.IsStaff = ou.IsStaff
	usr.IsActive = ou.IsActive
	usr.LastLogin = now
	usr.UpdatedAt = now
	return svc.repo.UpsertUser(ctx, usr)
}

// UpdateProfile applies self-service profile edits.
func (svc *Service) UpdateProfile(ctx context.Context, id int, up UpdateProfile) (User, error) {
	if err := svc.validate.Struct(up); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	usr.FirstName = core.CleanString(up.FirstName)
	usr.LastName = core.CleanString(up.LastName)
	usr.Gender = core.CleanString(up.Gender)
	usr.Phone = core.CleanString(up.Phone)
	usr.Address = core.CleanString(up.Address)
	usr.City = core.CleanString(up.City)
	usr.PostalCode = core.CleanString(up.PostalCode)
	usr.Country = core.CleanString(up.Country)
	usr.SchoolStage = core.CleanString(up.SchoolStage)
	if up.Birthday != "" {
		bday, err := time.Parse("2006-01-02", up.Birthday)
		if err != nil {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "birthday", Error: "invalid date"})
		}
		usr.Birthday = bday
	}
	if up.AllowMailing != nil {
		usr.AllowMailing = *up.AllowMailing
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}
