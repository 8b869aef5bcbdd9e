package applicant_test

import (
	"context"
	"testing"
	"time"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/form"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/user"
	inmemdb "github.com/prologin/gccsite/storage/database/inmem"
)

type fixture struct {
	svc     *applicant.Service
	edSvc   *edition.Service
	formSvc *form.Service
	revSvc  *review.Service
	rules   *review.Rules

	appRepo applicant.Repository
	usrRepo user.Repository
	revRepo review.Repository

	year      int
	openEvent edition.Event
	pastEvent edition.Event
	motiv     form.Question // string, always+finally required
	level     form.Question // multichoice, optional
	candidate user.User
	corrector user.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db := inmemdb.NewDB()
	f := &fixture{
		appRepo: inmemdb.NewApplicantRepository(db),
		usrRepo: inmemdb.NewUserRepository(db),
		revRepo: inmemdb.NewReviewRepository(db),
		year:    2026,
	}
	edRepo := inmemdb.NewEditionRepository(db)
	formRepo := inmemdb.NewFormRepository(db)

	f.edSvc = edition.NewService(edRepo)
	f.formSvc = form.NewService(formRepo)
	f.revSvc = review.NewService(f.revRepo)
	f.rules = review.NewRules(f.revRepo)
	f.svc = applicant.NewService(nil, f.appRepo, f.edSvc, f.formSvc, f.revSvc, f.rules)

	// signup form
	signupForm, err := formRepo.CreateForm(ctx, form.Form{Name: "signup-2026"})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	f.motiv, err = formRepo.CreateQuestion(ctx, form.Question{
		Label:           "Why do you want to join?",
		ResponseType:    form.Text,
		AlwaysRequired:  true,
		FinallyRequired: true,
	})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	f.level, err = formRepo.CreateQuestion(ctx, form.Question{
		Label:        "Programming level",
		ResponseType: form.MultiChoice,
		Meta:         form.QuestionMeta{Choices: map[string]string{"0": "Beginner", "1": "Intermediate"}},
	})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	if err = formRepo.AppendQuestionToForm(ctx, signupForm.ID, f.motiv.ID, 1); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	if err = formRepo.AppendQuestionToForm(ctx, signupForm.ID, f.level.ID, 2); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	// edition & events
	if _, err = edRepo.CreateEdition(ctx, edition.Edition{Year: f.year, SignupFormID: signupForm.ID}); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	now := time.Now()
	center := edition.Center{Name: "Paris", City: "Paris"}
	f.openEvent, err = edRepo.CreateEvent(ctx, edition.Event{
		EditionYear: f.year,
		Center:      center,
		EventStart:  now.Add(30 * 24 * time.Hour),
		EventEnd:    now.Add(37 * 24 * time.Hour),
		SignupStart: now.Add(-24 * time.Hour),
		SignupEnd:   now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	f.pastEvent, err = edRepo.CreateEvent(ctx, edition.Event{
		EditionYear: f.year,
		Center:      center,
		EventStart:  now.Add(-37 * 24 * time.Hour),
		EventEnd:    now.Add(-30 * 24 * time.Hour),
		SignupStart: now.Add(-60 * 24 * time.Hour),
		SignupEnd:   now.Add(-45 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	// users
	f.candidate = createUser(t, f.usrRepo, 1, "ada", false, true /* complete profile */)
	f.corrector = createUser(t, f.usrRepo, 2, "staff", true, true)
	if _, err = f.revRepo.CreateCorrector(ctx, review.Corrector{EventID: f.openEvent.ID, UserID: f.corrector.ID}); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return f
}

func createUser(t *testing.T, repo user.Repository, id int, uname string, isStaff, complete bool) user.User {
	t.Helper()
	usr := user.User{
		ID:       id,
		Username: uname,
		Email:    uname + "@test.fr",
		IsStaff:  isStaff,
		IsActive: true,
	}
	if complete {
		usr.Phone = "+33600000000"
		usr.Birthday = time.Date(2010, 5, 17, 0, 0, 0, 0, time.UTC)
		usr.Address = "1 rue de la Paix"
		usr.City = "Paris"
		usr.PostalCode = "75002"
		usr.Country = "France"
	}
	usr, err := repo.UpsertUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func TestService_ForUserAndEdition(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	app, err := f.svc.ForUserAndEdition(ctx, f.candidate, f.year)
	if err != nil {
		t.Fatalf("ForUserAndEdition() failed: %v", err)
	}
	if app.ID == "" {
		t.Error("ForUserAndEdition() did not assign an ID")
	}
	if got := app.Status(); got != applicant.StatusIncomplete {
		t.Errorf("Status() = %v; want incomplete", got)
	}

	again, err := f.svc.ForUserAndEdition(ctx, f.candidate, f.year)
	if err != nil {
		t.Fatalf("ForUserAndEdition() failed: %v", err)
	}
	if again.ID != app.ID {
		t.Errorf("second call created a new applicant: %s != %s", again.ID, app.ID)
	}

	if _, err = f.svc.ForUserAndEdition(ctx, f.candidate, 1999); !core.IsNotFound(err) {
		t.Errorf("unknown edition error = %v; want not found", err)
	}
}

func TestService_SaveAnswers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// missing always-required answer
	err := f.svc.SaveAnswers(ctx, f.candidate, f.year, map[string]interface{}{})
	if !core.IsValidation(err) {
		t.Fatalf("SaveAnswers(empty) error = %v; want validation error", err)
	}

	// unknown multichoice key
	err = f.svc.SaveAnswers(ctx, f.candidate, f.year, map[string]interface{}{
		f.motiv.ID: "I love computers",
		f.level.ID: "9",
	})
	if !core.IsValidation(err) {
		t.Fatalf("SaveAnswers(bad choice) error = %v; want validation error", err)
	}

	// valid submission
	err = f.svc.SaveAnswers(ctx, f.candidate, f.year, map[string]interface{}{
		f.motiv.ID: "I love computers",
		f.level.ID: "1",
	})
	if err != nil {
		t.Fatalf("SaveAnswers() failed: %v", err)
	}

	app, _ := f.svc.ForUserAndEdition(ctx, f.candidate, f.year)
	answers, err := f.svc.Answers(ctx, app.ID)
	if err != nil {
		t.Fatalf("Answers() failed: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("len(answers) = %d; want 2", len(answers))
	}

	// resubmitting updates in place
	err = f.svc.SaveAnswers(ctx, f.candidate, f.year, map[string]interface{}{
		f.motiv.ID: "Robots!",
	})
	if err != nil {
		t.Fatalf("SaveAnswers(update) failed: %v", err)
	}
	answers, _ = f.svc.Answers(ctx, app.ID)
	if len(answers) != 2 {
		t.Errorf("len(answers) after update = %d; want 2", len(answers))
	}
	for _, ans := range answers {
		if ans.Question.ID == f.motiv.ID && ans.Response != "Robots!" {
			t.Errorf("updated response = %v; want Robots!", ans.Response)
		}
	}
}

func TestService_SaveWishes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if err := f.svc.SaveWishes(ctx, f.candidate, f.year, make([]string, 4)); !core.IsValidation(err) {
		t.Errorf("SaveWishes(4 slots) error = %v; want validation error", err)
	}
	if err := f.svc.SaveWishes(ctx, f.candidate, f.year, []string{f.pastEvent.ID}); !core.IsValidation(err) {
		t.Errorf("SaveWishes(closed event) error = %v; want validation error", err)
	}
	if err := f.svc.SaveWishes(ctx, f.candidate, f.year, []string{f.openEvent.ID, f.openEvent.ID}); !core.IsValidation(err) {
		t.Errorf("SaveWishes(duplicate) error = %v; want validation error", err)
	}

	if err := f.svc.SaveWishes(ctx, f.candidate, f.year, []string{"", f.openEvent.ID, ""}); err != nil {
		t.Fatalf("SaveWishes() failed: %v", err)
	}
	app, _ := f.svc.ForUserAndEdition(ctx, f.candidate, f.year)
	if len(app.Wishes) != 1 {
		t.Fatalf("len(wishes) = %d; want 1", len(app.Wishes))
	}
	if app.Wishes[0].Order != 2 {
		t.Errorf("wish order = %d; want 2", app.Wishes[0].Order)
	}
	if app.Wishes[0].Status != applicant.StatusIncomplete {
		t.Errorf("wish status = %v; want incomplete", app.Wishes[0].Status)
	}

	// promoting to slot 1 updates the order in place
	if err := f.svc.SaveWishes(ctx, f.candidate, f.year, []string{f.openEvent.ID}); err != nil {
		t.Fatalf("SaveWishes(reorder) failed: %v", err)
	}
	reordered, _ := f.svc.ForUserAndEdition(ctx, f.candidate, f.year)
	if len(reordered.Wishes) != 1 || reordered.Wishes[0].Order != 1 {
		t.Errorf("reordered wishes = %+v; want single wish at order 1", reordered.Wishes)
	}
	if reordered.Wishes[0].ID != app.Wishes[0].ID {
		t.Error("reordering recreated the wish instead of updating it")
	}

	// clearing all slots deletes the wish
	if err := f.svc.SaveWishes(ctx, f.candidate, f.year, nil); err != nil {
		t.Fatalf("SaveWishes(clear) failed: %v", err)
	}
	cleared, _ := f.svc.ForUserAndEdition(ctx, f.candidate, f.year)
	if len(cleared.Wishes) != 0 {
		t.Errorf("len(wishes) after clear = %d; want 0", len(cleared.Wishes))
	}
}

func TestService_Validate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if err := f.svc.SaveWishes(ctx, f.candidate, f.year, []string{f.openEvent.ID}); err != nil {
		t.Fatalf("SaveWishes() failed: %v", err)
	}

	// the finally-required question is still unanswered
	if err := f.svc.Validate(ctx, f.candidate, f.year); !core.IsValidation(err) {
		t.Fatalf("Validate(no answers) error = %v; want validation error", err)
	}

	if err := f.svc.SaveAnswers(ctx, f.candidate, f.year, map[string]interface{}{f.motiv.ID: "I love computers"}); err != nil {
		t.Fatalf("SaveAnswers() failed: %v", err)
	}
	if err := f.svc.Validate(ctx, f.candidate, f.year); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	app, _ := f.svc.ForUserAndEdition(ctx, f.candidate, f.year)
	if got := app.Status(); got != applicant.StatusPending {
		t.Errorf("Status() after validate = %v; want pending", got)
	}
	if !app.IsLocked() {
		t.Error("IsLocked() after validate = false; want true")
	}

	// editing is now refused
	err := f.svc.SaveAnswers(ctx, f.candidate, f.year, map[string]interface{}{f.motiv.ID: "changed my mind"})
	if !core.IsPermissionDenied(err) {
		t.Errorf("SaveAnswers(locked) error = %v; want permission error", err)
	}
	if err = f.svc.SaveWishes(ctx, f.candidate, f.year, nil); !core.IsPermissionDenied(err) {
		t.Errorf("SaveWishes(locked) error = %v; want permission error", err)
	}

	// incomplete profile fails the gate
	hermit := createUser(t, f.usrRepo, 3, "hermit", false, false)
	if err = f.svc.SaveWishes(ctx, hermit, f.year, []string{f.openEvent.ID}); err != nil {
		t.Fatalf("SaveWishes(hermit) failed: %v", err)
	}
	if err = f.svc.Validate(ctx, hermit, f.year); !core.IsValidation(err) {
		t.Errorf("Validate(incomplete profile) error = %v; want validation error", err)
	}
}

func validatedApplicant(t *testing.T, f *fixture) applicant.Applicant {
	t.Helper()
	ctx := context.Background()

	if err := f.svc.SaveWishes(ctx, f.candidate, f.year, []string{f.openEvent.ID}); err != nil {
		t.Fatalf("SaveWishes() failed: %v", err)
	}
	if err := f.svc.SaveAnswers(ctx, f.candidate, f.year, map[string]interface{}{f.motiv.ID: "I love computers"}); err != nil {
		t.Fatalf("SaveAnswers() failed: %v", err)
	}
	if err := f.svc.Validate(ctx, f.candidate, f.year); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	app, err := f.svc.ForUserAndEdition(ctx, f.candidate, f.year)
	if err != nil {
		t.Fatalf("ForUserAndEdition() failed: %v", err)
	}
	return app
}

func TestService_SetWishStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	app := validatedApplicant(t, f)
	wishID := app.Wishes[0].ID

	if _, err := f.svc.SetWishStatus(ctx, f.corrector, wishID, applicant.Status(42)); !core.IsValidation(err) {
		t.Errorf("SetWishStatus(bad status) error = %v; want validation error", err)
	}
	if _, err := f.svc.SetWishStatus(ctx, f.candidate, wishID, applicant.StatusSelected); !core.IsPermissionDenied(err) {
		t.Errorf("SetWishStatus(non-corrector) error = %v; want permission error", err)
	}

	accepted, err := f.svc.SetWishStatus(ctx, f.corrector, wishID, applicant.StatusSelected)
	if err != nil {
		t.Fatalf("SetWishStatus(selected) failed: %v", err)
	}
	if accepted {
		t.Error("SetWishStatus(selected) becameAccepted = true; want false")
	}
	if _, err = f.svc.SetWishStatus(ctx, f.corrector, wishID, applicant.StatusSelected); !core.IsConflict(err) {
		t.Errorf("SetWishStatus(same status) error = %v; want conflict error", err)
	}

	count, err := f.svc.AcceptanceCounter(ctx, f.openEvent.ID)
	if err != nil {
		t.Fatalf("AcceptanceCounter() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("AcceptanceCounter() = %d; want 1", count)
	}

	accepted, err = f.svc.SetWishStatus(ctx, f.corrector, wishID, applicant.StatusAccepted)
	if err != nil {
		t.Fatalf("SetWishStatus(accepted) failed: %v", err)
	}
	if !accepted {
		t.Error("SetWishStatus(accepted) becameAccepted = false; want true")
	}
	if count, _ = f.svc.AcceptanceCounter(ctx, f.openEvent.ID); count != 0 {
		t.Errorf("AcceptanceCounter() after accept = %d; want 0", count)
	}
}

func TestService_ConfirmWish(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	app := validatedApplicant(t, f)
	wishID := app.Wishes[0].ID

	// not accepted yet
	if err := f.svc.ConfirmWish(ctx, f.candidate, wishID); !core.IsConflict(err) {
		t.Errorf("ConfirmWish(pending) error = %v; want conflict error", err)
	}

	if _, err := f.svc.SetWishStatus(ctx, f.corrector, wishID, applicant.StatusAccepted); err != nil {
		t.Fatalf("SetWishStatus() failed: %v", err)
	}

	// someone else's wish
	stranger := createUser(t, f.usrRepo, 4, "eve", false, true)
	if err := f.svc.ConfirmWish(ctx, stranger, wishID); !core.IsPermissionDenied(err) {
		t.Errorf("ConfirmWish(stranger) error = %v; want permission error", err)
	}

	if err := f.svc.ConfirmWish(ctx, f.candidate, wishID); err != nil {
		t.Fatalf("ConfirmWish() failed: %v", err)
	}
	app, _ = f.svc.GetByID(ctx, app.ID)
	if got := app.Status(); got != applicant.StatusConfirmed {
		t.Errorf("Status() after confirm = %v; want confirmed", got)
	}
}

func TestService_Labels(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	app := validatedApplicant(t, f)

	label, err := f.revSvc.CreateLabel(ctx, "motivated")
	if err != nil {
		t.Fatalf("CreateLabel() failed: %v", err)
	}

	// only correctors of a wished event may label
	if _, err = f.svc.AddLabel(ctx, f.candidate, app.ID, label.ID); !core.IsPermissionDenied(err) {
		t.Errorf("AddLabel(non-corrector) error = %v; want permission error", err)
	}

	app, err = f.svc.AddLabel(ctx, f.corrector, app.ID, label.ID)
	if err != nil {
		t.Fatalf("AddLabel() failed: %v", err)
	}
	if !app.HasLabel(label.ID) {
		t.Error("HasLabel() = false after AddLabel")
	}
	if _, err = f.svc.AddLabel(ctx, f.corrector, app.ID, label.ID); !core.IsConflict(err) {
		t.Errorf("AddLabel(again) error = %v; want conflict error", err)
	}

	app, err = f.svc.RemoveLabel(ctx, f.corrector, app.ID, label.ID)
	if err != nil {
		t.Fatalf("RemoveLabel() failed: %v", err)
	}
	if app.HasLabel(label.ID) {
		t.Error("HasLabel() = true after RemoveLabel")
	}
	if _, err = f.svc.RemoveLabel(ctx, f.corrector, app.ID, label.ID); !core.IsConflict(err) {
		t.Errorf("RemoveLabel(again) error = %v; want conflict error", err)
	}
}

func TestService_ExportRecords(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	app := validatedApplicant(t, f)
	wishID := app.Wishes[0].ID

	// pending wishes are not exported
	records, err := f.svc.ExportRecords(ctx, f.openEvent.ID)
	if err != nil {
		t.Fatalf("ExportRecords() failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("len(records) = %d; want 0", len(records))
	}

	if _, err = f.svc.SetWishStatus(ctx, f.corrector, wishID, applicant.StatusSelected); err != nil {
		t.Fatalf("SetWishStatus() failed: %v", err)
	}
	records, err = f.svc.ExportRecords(ctx, f.openEvent.ID)
	if err != nil {
		t.Fatalf("ExportRecords() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d; want 1", len(records))
	}

	data := records[0].ExportData()
	if got, _ := data.Get("Username"); got != "ada" {
		t.Errorf("Username column = %q; want ada", got)
	}
	if got, _ := data.Get(f.motiv.String()); got != "I love computers" {
		t.Errorf("motivation column = %q; want the answer", got)
	}
	// unanswered question renders as a marked empty cell
	if got, _ := data.Get(f.level.String()); got != "(empty)" {
		t.Errorf("level column = %q; want (empty)", got)
	}
}
