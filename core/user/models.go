package user

import (
	"time"
)

// User is a participant or staff account. Accounts are created and
// authenticated by the Prologin SSO; the numeric ID is the provider's
// primary key and is trusted as-is.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Gender       string    `json:"gender"`
	Phone        string    `json:"phone"`
	Birthday     time.Time `json:"birthday"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	SchoolStage  string    `json:"school_stage"`
	IsStaff      bool      `json:"is_staff"`
	IsActive     bool      `json:"is_active"`
	AllowMailing bool      `json:"allow_mailing"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) HasPartialAddress() bool {
	return u.Address != "" || u.City != "" || u.Country != "" || u.PostalCode != ""
}

func (u *User) HasCompleteAddress() bool {
	return u.Address != "" && u.City != "" && u.Country != "" && u.PostalCode != ""
}

// HasCompleteProfile reports whether the profile carries everything an
// application needs before it can be validated.
func (u *User) HasCompleteProfile() bool {
	return u.HasCompleteAddress() && u.Phone != "" && !u.Birthday.IsZero()
}

// OAuthUser is the profile payload synced from the identity provider on
// each login.
type OAuthUser struct {
	ID        int    `json:"pk"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	IsStaff   bool   `json:"is_staff"`
	IsActive  bool   `json:"is_active"`
}

// UpdateProfile defines what information a user may edit on her own
// profile; identity fields (username, email, staff flag) are owned by
// the OAuth provider and not editable here.
type UpdateProfile struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Gender       string `json:"gender"`
	Phone        string `json:"phone" validate:"omitempty,max=16"`
	Birthday     string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Address      string `json:"address"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code" validate:"omitempty,alphanum_"`
	Country      string `json:"country"`
	SchoolStage  string `json:"school_stage"`
	AllowMailing *bool  `json:"allow_mailing"`
}
