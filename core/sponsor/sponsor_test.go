package sponsor_test

import (
	"context"
	"testing"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/sponsor"
	inmemdb "github.com/prologin/gccsite/storage/database/inmem"
)

func TestService_Active(t *testing.T) {
	svc := sponsor.NewService(inmemdb.NewSponsorRepository(inmemdb.NewDB()))
	ctx := context.Background()

	if _, err := svc.Get(ctx, "nope"); !core.IsNotFound(err) {
		t.Errorf("Get(unknown) error = %v; want not found", err)
	}

	active, err := svc.Create(ctx, sponsor.Sponsor{Name: " ACME ", IsActive: true})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if active.Name != "ACME" {
		t.Errorf("Name = %q; want trimmed", active.Name)
	}
	if _, err = svc.Create(ctx, sponsor.Sponsor{Name: "Gone Corp"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	sponsors, err := svc.Active(ctx)
	if err != nil {
		t.Fatalf("Active() failed: %v", err)
	}
	if len(sponsors) != 1 || sponsors[0].ID != active.ID {
		t.Errorf("Active() = %v; want only the active sponsor", sponsors)
	}
}
