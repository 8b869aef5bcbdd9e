package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/sponsor"
	"github.com/prologin/gccsite/storage/database"
)

type sponsorRepository struct {
	db *database.DB
}

var _ sponsor.Repository = (*sponsorRepository)(nil) // interface compliance check

func NewSponsorRepository(db *database.DB) *sponsorRepository {
	return &sponsorRepository{db: db}
}

type sponsorRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	LogoURL     null.String `db:"logo_url"`
	SiteURL     null.String `db:"site_url"`
	Email       null.String `db:"email"`
	Phone       null.String `db:"phone"`
	IsActive    bool        `db:"is_active"`
}

func (repo sponsorRepository) fromRow(row sponsorRow) sponsor.Sponsor {
	return sponsor.Sponsor{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description.String,
		LogoURL:     row.LogoURL.String,
		SiteURL:     row.SiteURL.String,
		Email:       row.Email.String,
		Phone:       row.Phone.String,
		IsActive:    row.IsActive,
	}
}

func (repo sponsorRepository) GetSponsorByID(ctx context.Context, id string, exec ...core.DBExecutor) (sponsor.Sponsor, error) {
	if _, err := uuid.Parse(id); err != nil {
		return sponsor.Sponsor{}, sponsor.ErrNotFound
	}
	var row sponsorRow
	q := `SELECT * FROM sponsors WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return sponsor.Sponsor{}, sponsor.ErrNotFound
		}
		return sponsor.Sponsor{}, errors.Wrap(err, "finding sponsor by ID")
	}
	return repo.fromRow(row), nil
}

func (repo sponsorRepository) QueryActiveSponsors(ctx context.Context, exec ...core.DBExecutor) ([]sponsor.Sponsor, error) {
	var rows []sponsorRow
	q := `SELECT * FROM sponsors WHERE is_active ORDER BY name`
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying sponsors")
	}
	sponsors := make([]sponsor.Sponsor, 0, len(rows))
	for _, row := range rows {
		sponsors = append(sponsors, repo.fromRow(row))
	}
	return sponsors, nil
}

func (repo sponsorRepository) CreateSponsor(ctx context.Context, s sponsor.Sponsor, exec ...core.DBExecutor) (sponsor.Sponsor, error) {
	s.ID = uuid.New().String()
	q := `
INSERT INTO sponsors (id, name, description, logo_url, site_url, email, phone, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := getExec(repo.db, exec).ExecContext(ctx, q,
		s.ID, s.Name, null.NewString(s.Description, s.Description != ""), null.NewString(s.LogoURL, s.LogoURL != ""),
		null.NewString(s.SiteURL, s.SiteURL != ""), null.NewString(s.Email, s.Email != ""),
		null.NewString(s.Phone, s.Phone != ""), s.IsActive)
	if err != nil {
		return sponsor.Sponsor{}, errors.Wrap(err, "inserting sponsor")
	}
	return s, nil
}
