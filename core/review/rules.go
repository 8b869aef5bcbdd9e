package review

import (
	"context"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/user"
)

// ErrNotAllowed is returned by callers when a rule predicate denies the
// acting user; it is distinguishable from not-found and state conflicts.
var ErrNotAllowed = core.NewPermissionError("not allowed")

// Rules is the authorization collaborator: a set of pure predicates
// evaluated before any mutating operation. It is constructed once at
// process start and injected wherever permission checks are needed;
// there is no ambient permission registry.
type Rules struct {
	repo Repository
}

func NewRules(repo Repository) *Rules {
	return &Rules{repo: repo}
}

// CanReview is granted to all staff members.
func (r *Rules) CanReview(usr user.User) bool {
	return usr.IsStaff
}

// CanReviewEvent is granted to correctors of the event.
func (r *Rules) CanReviewEvent(ctx context.Context, usr user.User, eventID string) (bool, error) {
	return r.repo.IsCorrector(ctx, usr.ID, []string{eventID})
}

// CanAcceptWish is granted to correctors of the wished event.
func (r *Rules) CanAcceptWish(ctx context.Context, usr user.User, eventID string) (bool, error) {
	return r.CanReviewEvent(ctx, usr, eventID)
}

// CanEditApplicationLabels is granted when the corrector is allowed to
// review at least one event the applicant applies to.
func (r *Rules) CanEditApplicationLabels(ctx context.Context, usr user.User, wishedEventIDs []string) (bool, error) {
	if len(wishedEventIDs) == 0 {
		return false, nil
	}
	return r.repo.IsCorrector(ctx, usr.ID, wishedEventIDs)
}
