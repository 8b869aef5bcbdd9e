package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/user"
	"github.com/prologin/gccsite/storage/database"
)

type userRepository struct {
	db *database.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *database.DB) *userRepository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           int         `db:"id"`
	Username     string      `db:"username"`
	FirstName    null.String `db:"first_name"`
	LastName     null.String `db:"last_name"`
	Email        string      `db:"email"`
	Gender       null.String `db:"gender"`
	Phone        null.String `db:"phone"`
	Birthday     null.Time   `db:"birthday"`
	Address      null.String `db:"address"`
	City         null.String `db:"city"`
	PostalCode   null.String `db:"postal_code"`
	Country      null.String `db:"country"`
	SchoolStage  null.String `db:"school_stage"`
	IsStaff      bool        `db:"is_staff"`
	IsActive     bool        `db:"is_active"`
	AllowMailing bool        `db:"allow_mailing"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		FirstName:    null.NewString(usr.FirstName, usr.FirstName != ""),
		LastName:     null.NewString(usr.LastName, usr.LastName != ""),
		Email:        usr.Email,
		Gender:       null.NewString(usr.Gender, usr.Gender != ""),
		Phone:        null.NewString(usr.Phone, usr.Phone != ""),
		Birthday:     null.NewTime(usr.Birthday, !usr.Birthday.IsZero()),
		Address:      null.NewString(usr.Address, usr.Address != ""),
		City:         null.NewString(usr.City, usr.City != ""),
		PostalCode:   null.NewString(usr.PostalCode, usr.PostalCode != ""),
		Country:      null.NewString(usr.Country, usr.Country != ""),
		SchoolStage:  null.NewString(usr.SchoolStage, usr.SchoolStage != ""),
		IsStaff:      usr.IsStaff,
		IsActive:     usr.IsActive,
		AllowMailing: usr.AllowMailing,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) fromRow(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		Username:     row.Username,
		FirstName:    row.FirstName.String,
		LastName:     row.LastName.String,
		Email:        row.Email,
		Gender:       row.Gender.String,
		Phone:        row.Phone.String,
		Birthday:     row.Birthday.Time,
		Address:      row.Address.String,
		City:         row.City.String,
		PostalCode:   row.PostalCode.String,
		Country:      row.Country.String,
		SchoolStage:  row.SchoolStage.String,
		IsStaff:      row.IsStaff,
		IsActive:     row.IsActive,
		AllowMailing: row.AllowMailing,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	q := `SELECT * FROM users WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	q := `SELECT * FROM users WHERE username = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, q, username); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by username")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpsertUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `
INSERT INTO users (
	id, username, first_name, last_name, email, gender, phone, birthday, address, city,
	postal_code, country, school_stage, is_staff, is_active, allow_mailing, created_at, updated_at, last_login
) VALUES (
	:id, :username, :first_name, :last_name, :email, :gender, :phone, :birthday, :address, :city,
	:postal_code, :country, :school_stage, :is_staff, :is_active, :allow_mailing, :created_at, :updated_at, :last_login
)
ON CONFLICT (id) DO UPDATE SET
	username = EXCLUDED.username,
	email = EXCLUDED.email,
	is_staff = EXCLUDED.is_staff,
	is_active = EXCLUDED.is_active,
	updated_at = EXCLUDED.updated_at,
	last_login = EXCLUDED.last_login`
	if _, err := sqlx.NamedExecContext(ctx, getExec(repo.db, exec), q, repo.toRow(usr)); err != nil {
		return user.User{}, errors.Wrap(err, "upserting user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `
UPDATE users SET
	first_name = :first_name,
	last_name = :last_name,
	gender = :gender,
	phone = :phone,
	birthday = :birthday,
	address = :address,
	city = :city,
	postal_code = :postal_code,
	country = :country,
	school_stage = :school_stage,
	allow_mailing = :allow_mailing,
	updated_at = :updated_at
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, getExec(repo.db, exec), q, repo.toRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
