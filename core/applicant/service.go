package applicant

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/form"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/user"
)

var (
	// errors
	ErrNotFound            = core.NewNotFoundError("applicant does not exist")
	ErrWishNotFound        = core.NewNotFoundError("wish not found")
	ErrAlreadyInState      = core.NewConflictError("wish already in this state")
	ErrNotConfirmable      = core.NewConflictError("only an accepted wish can be confirmed")
	ErrLabelAlreadyApplied = core.NewConflictError("label already applied")
	ErrLabelNotApplied     = core.NewConflictError("label not applied")
	ErrLocked              = core.NewPermissionError("application has already been validated")
)

// wishSlots is the number of ranked event preferences an applicant may
// express; priorities run 1..wishSlots.
const wishSlots = 3

type (
	Repository interface {
		GetApplicantByID(ctx context.Context, id string, exec ...core.DBExecutor) (Applicant, error)
		GetApplicantForUserAndEdition(ctx context.Context, userID, year int, exec ...core.DBExecutor) (Applicant, error)
		CreateApplicant(ctx context.Context, app Applicant, exec ...core.DBExecutor) (Applicant, error)
		// QueryApplicantsForEventStatus returns the distinct applicants
		// whose wish for the event carries the given status, sorted per
		// ordering (by id when empty).
		QueryApplicantsForEventStatus(ctx context.Context, eventID string, status Status, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Applicant, error)
		CountWishesForEventStatus(ctx context.Context, eventID string, status Status, exec ...core.DBExecutor) (int, error)

		GetWishByID(ctx context.Context, id string, exec ...core.DBExecutor) (EventWish, error)
		CreateWish(ctx context.Context, wish EventWish, exec ...core.DBExecutor) (EventWish, error)
		UpdateWishOrder(ctx context.Context, wishID string, order int, exec ...core.DBExecutor) error
		UpdateWishStatus(ctx context.Context, wishID string, status Status, exec ...core.DBExecutor) error
		DeleteWish(ctx context.Context, wishID string, exec ...core.DBExecutor) error

		QueryAnswers(ctx context.Context, applicantID string, exec ...core.DBExecutor) ([]Answer, error)
		UpsertAnswer(ctx context.Context, ans Answer, exec ...core.DBExecutor) (Answer, error)

		AddLabel(ctx context.Context, applicantID, labelID string, exec ...core.DBExecutor) error
		RemoveLabel(ctx context.Context, applicantID, labelID string, exec ...core.DBExecutor) error
	}

	Service struct {
		db        core.DB
		repo      Repository
		edSvc     *edition.Service
		formSvc   *form.Service
		reviewSvc *review.Service
		rules     *review.Rules
	}
)

func NewService(db core.DB, repo Repository, edSvc *edition.Service, formSvc *form.Service,
	reviewSvc *review.Service, rules *review.Rules) *Service {
	return &Service{
		db:        db,
		repo:      repo,
		edSvc:     edSvc,
		formSvc:   formSvc,
		reviewSvc: reviewSvc,
		rules:     rules,
	}
}

// atomic runs fn inside a transaction when a real database is available.
func (svc *Service) atomic(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	if svc.db == nil {
		return fn(nil)
	}
	tx, err := svc.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Applicant, error) {
	return svc.repo.GetApplicantByID(ctx, id)
}

// ForUserAndEdition returns the user's applicant record for the edition,
// creating it lazily on first access.
func (svc *Service) ForUserAndEdition(ctx context.Context, usr user.User, year int) (Applicant, error) {
	app, err := svc.repo.GetApplicantForUserAndEdition(ctx, usr.ID, year)
	if err == nil {
		return app, nil
	}
	if !core.IsNotFound(err) {
		return Applicant{}, err
	}
	if _, err := svc.edSvc.GetByYear(ctx, year); err != nil {
		return Applicant{}, err
	}
	return svc.repo.CreateApplicant(ctx, Applicant{User: usr, EditionYear: year})
}

// Questionnaire builds the edition's signup form as typed fields,
// prefilled with the applicant's existing answers.
func (svc *Service) Questionnaire(ctx context.Context, usr user.User, year int) ([]form.Field, error) {
	app, err := svc.ForUserAndEdition(ctx, usr, year)
	if err != nil {
		return nil, err
	}
	ed, err := svc.edSvc.GetByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	questions, err := svc.formSvc.Questions(ctx, ed.SignupFormID)
	if err != nil {
		return nil, err
	}
	answers, err := svc.answersByQuestion(ctx, app.ID)
	if err != nil {
		return nil, err
	}

	fields := make([]form.Field, 0, len(questions))
	for _, q := range questions {
		fld, err := form.FieldFor(q)
		if err != nil {
			return nil, err
		}
		if ans, ok := answers[q.ID]; ok {
			fld.Initial = ans.Response
		}
		fields = append(fields, fld)
	}
	return fields, nil
}

// SaveAnswers upserts the applicant's responses; values maps question id
// to the submitted value, absent keys are left untouched. Editing is
// refused once the application is locked.
func (svc *Service) SaveAnswers(ctx context.Context, usr user.User, year int, values map[string]interface{}) error {
	app, err := svc.ForUserAndEdition(ctx, usr, year)
	if err != nil {
		return err
	}
	if app.IsLocked() {
		return ErrLocked
	}
	ed, err := svc.edSvc.GetByYear(ctx, year)
	if err != nil {
		return err
	}
	questions, err := svc.formSvc.Questions(ctx, ed.SignupFormID)
	if err != nil {
		return err
	}

	var fldErrs []core.FieldError
	for _, q := range questions {
		val, ok := values[q.ID]
		if !ok || val == nil {
			if q.AlwaysRequired {
				fldErrs = append(fldErrs, core.FieldError{Field: q.ID, Error: "this field is required"})
			}
			continue
		}
		if q.ResponseType == form.MultiChoice {
			key, isStr := val.(string)
			if _, known := q.Meta.Choices[key]; !isStr || !known {
				fldErrs = append(fldErrs, core.FieldError{Field: q.ID, Error: "invalid choice"})
			}
		}
	}
	if fldErrs != nil {
		return core.NewValidationError(errors.New("invalid answers"), fldErrs...)
	}

	return svc.atomic(ctx, func(exec core.DBExecutor) error {
		for _, q := range questions {
			val, ok := values[q.ID]
			if !ok || val == nil {
				continue
			}
			ans := Answer{ApplicantID: app.ID, Question: q, Response: val}
			if _, err := svc.repo.UpsertAnswer(ctx, ans, exec); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWishes records the applicant's ranked event preferences for the
// edition. eventIDs holds up to 3 event ids by priority slot; an empty
// slot deletes the corresponding wish. Only events open for signup in the
// edition may be wished.
func (svc *Service) SaveWishes(ctx context.Context, usr user.User, year int, eventIDs []string) error {
	if len(eventIDs) > wishSlots {
		return core.NewValidationError(errors.Errorf("at most %d wishes are allowed", wishSlots))
	}
	app, err := svc.ForUserAndEdition(ctx, usr, year)
	if err != nil {
		return err
	}
	if app.IsLocked() {
		return ErrLocked
	}

	open, err := svc.edSvc.OpenEvents(ctx, year, time.Now())
	if err != nil {
		return err
	}
	openByID := make(map[string]edition.Event, len(open))
	for _, ev := range open {
		openByID[ev.ID] = ev
	}

	// resolve slots; duplicate or closed events are user errors
	wanted := make(map[string]int, len(eventIDs)) // event id -> priority
	for slot, id := range eventIDs {
		if id == "" {
			continue
		}
		ev, ok := openByID[id]
		if !ok {
			return core.NewValidationError(errors.New("event is not open for signup"),
				core.FieldError{Field: "priority" + strconv.Itoa(slot+1), Error: "event is not open for signup"})
		}
		if _, dup := wanted[ev.ID]; dup {
			return core.NewValidationError(errors.New("duplicate event wish"),
				core.FieldError{Field: "priority" + strconv.Itoa(slot+1), Error: "event already wished"})
		}
		wanted[ev.ID] = slot + 1
	}

	current := make(map[string]EventWish, len(app.Wishes))
	for _, w := range app.Wishes {
		current[w.Event.ID] = w
	}

	return svc.atomic(ctx, func(exec core.DBExecutor) error {
		for eventID, order := range wanted {
			if w, ok := current[eventID]; ok {
				if w.Order != order {
					if err := svc.repo.UpdateWishOrder(ctx, w.ID, order, exec); err != nil {
						return err
					}
				}
				continue
			}
			wish := EventWish{
				ApplicantID: app.ID,
				Event:       openByID[eventID],
				Status:      StatusIncomplete,
				Order:       order,
			}
			if _, err := svc.repo.CreateWish(ctx, wish, exec); err != nil {
				return err
			}
		}
		// drop wishes for slots that were cleared
		for eventID, w := range current {
			if _, keep := wanted[eventID]; !keep {
				if err := svc.repo.DeleteWish(ctx, w.ID, exec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// HasCompleteApplication reports whether the application can be
// validated: the profile must be complete and every question of the
// current edition's signup form answered validly; a missing answer
// contributes the negation of the question's finally-required flag.
func (svc *Service) HasCompleteApplication(ctx context.Context, app Applicant) (bool, error) {
	if !app.User.HasCompleteProfile() {
		return false, nil
	}

	current, err := svc.edSvc.Current(ctx)
	if err != nil {
		return false, err
	}
	questions, err := svc.formSvc.Questions(ctx, current.SignupFormID)
	if err != nil {
		return false, err
	}
	answers, err := svc.answersByQuestion(ctx, app.ID)
	if err != nil {
		return false, err
	}

	for _, q := range questions {
		ans, ok := answers[q.ID]
		if !ok {
			if q.FinallyRequired {
				return false, nil
			}
			continue
		}
		if !ans.IsValid() {
			return false, nil
		}
	}
	return true, nil
}

// Validate submits the completed application: every wish still incomplete
// becomes pending. Idempotent; wishes past incomplete are left alone.
func (svc *Service) Validate(ctx context.Context, usr user.User, year int) error {
	app, err := svc.ForUserAndEdition(ctx, usr, year)
	if err != nil {
		return err
	}
	complete, err := svc.HasCompleteApplication(ctx, app)
	if err != nil {
		return err
	}
	if !complete {
		return core.NewValidationError(errors.New("failed to validate your application, your profile is incomplete"))
	}

	return svc.atomic(ctx, func(exec core.DBExecutor) error {
		for _, w := range app.Wishes {
			if w.Status != StatusIncomplete {
				continue
			}
			if err := svc.repo.UpdateWishStatus(ctx, w.ID, StatusPending, exec); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetWishStatus applies a staff decision on one wish. The caller must be
// a corrector of the wished event; re-applying the current status is a
// conflict. Reports whether the wish just transitioned to accepted so the
// transport layer can send the acceptance notice.
func (svc *Service) SetWishStatus(ctx context.Context, usr user.User, wishID string, status Status) (becameAccepted bool, err error) {
	if !status.IsValid() {
		return false, core.NewValidationError(errors.Errorf("unknown status %d", status))
	}
	wish, err := svc.repo.GetWishByID(ctx, wishID)
	if err != nil {
		return false, err
	}
	allowed, err := svc.rules.CanAcceptWish(ctx, usr, wish.Event.ID)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, review.ErrNotAllowed
	}
	if wish.Status == status {
		return false, ErrAlreadyInState
	}
	if err := svc.repo.UpdateWishStatus(ctx, wishID, status); err != nil {
		return false, err
	}
	return status == StatusAccepted, nil
}

// Wish returns one event wish by id.
func (svc *Service) Wish(ctx context.Context, wishID string) (EventWish, error) {
	return svc.repo.GetWishByID(ctx, wishID)
}

// ConfirmWish lets the applicant confirm her participation to the event
// she was accepted to.
func (svc *Service) ConfirmWish(ctx context.Context, usr user.User, wishID string) error {
	wish, err := svc.repo.GetWishByID(ctx, wishID)
	if err != nil {
		return err
	}
	app, err := svc.repo.GetApplicantByID(ctx, wish.ApplicantID)
	if err != nil {
		return err
	}
	if app.User.ID != usr.ID && !usr.IsStaff {
		return review.ErrNotAllowed
	}
	if wish.Status != StatusAccepted {
		return ErrNotConfirmable
	}
	return svc.repo.UpdateWishStatus(ctx, wishID, StatusConfirmed)
}

// AddLabel attaches a review label to the applicant. The caller must be a
// corrector of an event the applicant wished.
func (svc *Service) AddLabel(ctx context.Context, usr user.User, applicantID, labelID string) (Applicant, error) {
	app, label, err := svc.labelOperands(ctx, usr, applicantID, labelID)
	if err != nil {
		return Applicant{}, err
	}
	if app.HasLabel(label.ID) {
		return Applicant{}, ErrLabelAlreadyApplied
	}
	if err := svc.repo.AddLabel(ctx, app.ID, label.ID); err != nil {
		return Applicant{}, err
	}
	return svc.repo.GetApplicantByID(ctx, app.ID)
}

// RemoveLabel detaches a review label from the applicant.
func (svc *Service) RemoveLabel(ctx context.Context, usr user.User, applicantID, labelID string) (Applicant, error) {
	app, label, err := svc.labelOperands(ctx, usr, applicantID, labelID)
	if err != nil {
		return Applicant{}, err
	}
	if !app.HasLabel(label.ID) {
		return Applicant{}, ErrLabelNotApplied
	}
	if err := svc.repo.RemoveLabel(ctx, app.ID, label.ID); err != nil {
		return Applicant{}, err
	}
	return svc.repo.GetApplicantByID(ctx, app.ID)
}

func (svc *Service) labelOperands(ctx context.Context, usr user.User, applicantID, labelID string) (Applicant, review.Label, error) {
	app, err := svc.repo.GetApplicantByID(ctx, applicantID)
	if err != nil {
		return Applicant{}, review.Label{}, err
	}
	label, err := svc.reviewSvc.GetLabel(ctx, labelID)
	if err != nil {
		return Applicant{}, review.Label{}, err
	}
	allowed, err := svc.rules.CanEditApplicationLabels(ctx, usr, app.WishedEventIDs())
	if err != nil {
		return Applicant{}, review.Label{}, err
	}
	if !allowed {
		return Applicant{}, review.Label{}, review.ErrNotAllowed
	}
	return app, label, nil
}

// Per-event bulk selection queries backing the staff review screens.

// applicantSortFields lists the ordering fields the listings accept.
var applicantSortFields = map[string]bool{
	"id":       true,
	"username": true,
}

func (svc *Service) IncompleteApplicantsFor(ctx context.Context, eventID string) ([]Applicant, error) {
	return svc.repo.QueryApplicantsForEventStatus(ctx, eventID, StatusIncomplete, nil)
}

// AcceptableApplicantsFor lists the applicants waiting to be accepted
// (state `selected`).
func (svc *Service) AcceptableApplicantsFor(ctx context.Context, eventID string) ([]Applicant, error) {
	return svc.repo.QueryApplicantsForEventStatus(ctx, eventID, StatusSelected, nil)
}

func (svc *Service) AcceptedApplicantsFor(ctx context.Context, eventID string) ([]Applicant, error) {
	return svc.repo.QueryApplicantsForEventStatus(ctx, eventID, StatusAccepted, nil)
}

func (svc *Service) ConfirmedApplicantsFor(ctx context.Context, eventID string) ([]Applicant, error) {
	return svc.repo.QueryApplicantsForEventStatus(ctx, eventID, StatusConfirmed, nil)
}

func (svc *Service) RejectedApplicantsFor(ctx context.Context, eventID string) ([]Applicant, error) {
	return svc.repo.QueryApplicantsForEventStatus(ctx, eventID, StatusRejected, nil)
}

func (svc *Service) ApplicantsForEventStatus(ctx context.Context, eventID string, status Status, ordering ...core.DBOrdering) ([]Applicant, error) {
	if !status.IsValid() {
		return nil, core.NewValidationError(errors.Errorf("unknown status %d", status))
	}
	for _, ord := range ordering {
		if !applicantSortFields[ord.Field] {
			return nil, core.NewValidationError(errors.Errorf("unknown ordering field %q", ord.Field))
		}
	}
	return svc.repo.QueryApplicantsForEventStatus(ctx, eventID, status, ordering)
}

// AcceptanceCounter counts the applicants still waiting for a decision on
// this event, recomputed live after every status mutation.
func (svc *Service) AcceptanceCounter(ctx context.Context, eventID string) (int, error) {
	return svc.repo.CountWishesForEventStatus(ctx, eventID, StatusSelected)
}

func (svc *Service) Answers(ctx context.Context, applicantID string) ([]Answer, error) {
	return svc.repo.QueryAnswers(ctx, applicantID)
}

func (svc *Service) answersByQuestion(ctx context.Context, applicantID string) (map[string]Answer, error) {
	answers, err := svc.repo.QueryAnswers(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[string]Answer, len(answers))
	for _, ans := range answers {
		byQuestion[ans.Question.ID] = ans
	}
	return byQuestion, nil
}
