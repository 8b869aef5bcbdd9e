package user_test

import (
	"context"
	"testing"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/user"
	inmemdb "github.com/prologin/gccsite/storage/database/inmem"
)

func setup(t *testing.T) *user.Service {
	t.Helper()
	return user.NewService(inmemdb.NewUserRepository(inmemdb.NewDB()), core.NewValidator())
}

func TestService_SyncFromOAuth(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	usr, err := svc.SyncFromOAuth(ctx, user.OAuthUser{
		ID:        12,
		Username:  "ada",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "Ada@Test.FR",
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("SyncFromOAuth() failed: %v", err)
	}
	if usr.ID != 12 || usr.Username != "ada" {
		t.Errorf("user = %+v; want provider identity kept", usr)
	}
	if usr.Email != "ada@test.fr" {
		t.Errorf("Email = %q; want lowercase", usr.Email)
	}
	if !usr.AllowMailing {
		t.Error("AllowMailing = false on first sync; want true")
	}
	if usr.LastLogin.IsZero() || usr.CreatedAt.IsZero() {
		t.Error("timestamps not set on first sync")
	}

	// local edits survive the next sync
	phone := "+33600000000"
	if _, err = svc.UpdateProfile(ctx, usr.ID, user.UpdateProfile{Phone: phone}); err != nil {
		t.Fatalf("UpdateProfile() failed: %v", err)
	}
	usr, err = svc.SyncFromOAuth(ctx, user.OAuthUser{ID: 12, Username: "ada", Email: "ada@test.fr", IsStaff: true, IsActive: true})
	if err != nil {
		t.Fatalf("SyncFromOAuth(again) failed: %v", err)
	}
	if usr.Phone != phone {
		t.Errorf("Phone = %q after re-sync; want local edit kept", usr.Phone)
	}
	if !usr.IsStaff {
		t.Error("IsStaff = false; want provider flag synced")
	}
}

func TestService_UpdateProfile(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	usr, err := svc.SyncFromOAuth(ctx, user.OAuthUser{ID: 1, Username: "ada", Email: "ada@test.fr", IsActive: true})
	if err != nil {
		t.Fatalf("SyncFromOAuth() failed: %v", err)
	}

	if _, err = svc.UpdateProfile(ctx, usr.ID, user.UpdateProfile{Birthday: "not-a-date"}); err == nil {
		t.Error("UpdateProfile(bad birthday) error = nil; want error")
	}
	if _, err = svc.UpdateProfile(ctx, 999, user.UpdateProfile{}); !core.IsNotFound(err) {
		t.Errorf("UpdateProfile(unknown user) error = %v; want not found", err)
	}

	mailing := false
	usr, err = svc.UpdateProfile(ctx, usr.ID, user.UpdateProfile{
		FirstName:    " Ada ",
		Phone:        "+33600000000",
		Birthday:     "2010-05-17",
		Address:      "1 rue de la Paix",
		City:         "Paris",
		PostalCode:   "75002",
		Country:      "France",
		AllowMailing: &mailing,
	})
	if err != nil {
		t.Fatalf("UpdateProfile() failed: %v", err)
	}
	if usr.FirstName != "Ada" {
		t.Errorf("FirstName = %q; want trimmed", usr.FirstName)
	}
	if usr.AllowMailing {
		t.Error("AllowMailing = true; want opted out")
	}
	if usr.Birthday.Year() != 2010 {
		t.Errorf("Birthday = %v; want parsed date", usr.Birthday)
	}
	if !usr.HasCompleteProfile() {
		t.Error("HasCompleteProfile() = false; want true")
	}
}
