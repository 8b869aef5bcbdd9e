package edition_test

import (
	"context"
	"testing"
	"time"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/edition"
	inmemdb "github.com/prologin/gccsite/storage/database/inmem"
)

func setup(t *testing.T) *edition.Service {
	t.Helper()
	return edition.NewService(inmemdb.NewEditionRepository(inmemdb.NewDB()))
}

func createEdition(t *testing.T, svc *edition.Service, year int) edition.Edition {
	t.Helper()
	ed, err := svc.Create(context.Background(), edition.Edition{Year: year})
	if err != nil {
		t.Fatalf("createEdition(%d) failed: %v", year, err)
	}
	return ed
}

func TestService_Create(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	createEdition(t, svc, 2025)
	if _, err := svc.Create(ctx, edition.Edition{Year: 2025}); !core.IsConflict(err) {
		t.Errorf("Create(same year) error = %v; want conflict error", err)
	}
}

func TestService_Current(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	if _, err := svc.Current(ctx); !core.IsNotFound(err) {
		t.Errorf("Current(no editions) error = %v; want not found", err)
	}

	createEdition(t, svc, 2024)
	createEdition(t, svc, 2026)
	createEdition(t, svc, 2025)

	current, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current() failed: %v", err)
	}
	if current.Year != 2026 {
		t.Errorf("Current().Year = %d; want 2026", current.Year)
	}

	editions, err := svc.QueryAll(ctx)
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}
	if len(editions) != 3 || editions[0].Year != 2026 || editions[2].Year != 2024 {
		t.Errorf("QueryAll() = %v; want descending years", editions)
	}
}

func TestService_CreateEvent(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	now := time.Now()

	// edition must exist
	_, err := svc.CreateEvent(ctx, edition.Event{EditionYear: 2025})
	if !core.IsNotFound(err) {
		t.Errorf("CreateEvent(no edition) error = %v; want not found", err)
	}

	createEdition(t, svc, 2025)

	// windows must be ordered
	_, err = svc.CreateEvent(ctx, edition.Event{
		EditionYear: 2025,
		EventStart:  now.Add(48 * time.Hour),
		EventEnd:    now.Add(24 * time.Hour),
	})
	if !core.IsValidation(err) {
		t.Errorf("CreateEvent(backwards window) error = %v; want validation error", err)
	}

	ev, err := svc.CreateEvent(ctx, edition.Event{
		EditionYear: 2025,
		EventStart:  now.Add(24 * time.Hour),
		EventEnd:    now.Add(48 * time.Hour),
		SignupStart: now.Add(-24 * time.Hour),
		SignupEnd:   now.Add(12 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}
	if ev.ID == "" {
		t.Error("CreateEvent() did not assign an ID")
	}
}

func TestService_OpenEvents(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	now := time.Now()
	createEdition(t, svc, 2025)

	mkEvent := func(signupStart, signupEnd time.Duration) edition.Event {
		ev, err := svc.CreateEvent(ctx, edition.Event{
			EditionYear: 2025,
			EventStart:  now.Add(100 * 24 * time.Hour),
			EventEnd:    now.Add(107 * 24 * time.Hour),
			SignupStart: now.Add(signupStart),
			SignupEnd:   now.Add(signupEnd),
		})
		if err != nil {
			t.Fatalf("CreateEvent() failed: %v", err)
		}
		return ev
	}

	open := mkEvent(-24*time.Hour, 24*time.Hour)
	mkEvent(-48*time.Hour, -24*time.Hour) // closed
	mkEvent(24*time.Hour, 48*time.Hour)   // not yet open

	events, err := svc.OpenEvents(ctx, 2025, now)
	if err != nil {
		t.Fatalf("OpenEvents() failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != open.ID {
		t.Errorf("OpenEvents() = %v; want only the open event", events)
	}

	isOpen, err := svc.SubscriptionIsOpen(ctx, 2025, now)
	if err != nil {
		t.Fatalf("SubscriptionIsOpen() failed: %v", err)
	}
	if !isOpen {
		t.Error("SubscriptionIsOpen() = false; want true")
	}
	if isOpen, _ = svc.SubscriptionIsOpen(ctx, 2025, now.Add(72*time.Hour)); isOpen {
		t.Error("SubscriptionIsOpen(after all windows) = true; want false")
	}
}

func TestService_GetOrCreateCenter(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	c1, err := svc.GetOrCreateCenter(ctx, edition.Center{Name: " Paris ", City: "Paris"})
	if err != nil {
		t.Fatalf("GetOrCreateCenter() failed: %v", err)
	}
	if c1.Name != "Paris" {
		t.Errorf("Name = %q; want cleaned", c1.Name)
	}

	c2, err := svc.GetOrCreateCenter(ctx, edition.Center{Name: "Paris"})
	if err != nil {
		t.Fatalf("GetOrCreateCenter(again) failed: %v", err)
	}
	if c2.ID != c1.ID {
		t.Errorf("second call created a new center: %s != %s", c2.ID, c1.ID)
	}
}
