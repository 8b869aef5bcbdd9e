package applicant

import (
	"fmt"

	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/form"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/user"
)

// Status of one event wish, and by aggregation of a whole application.
type Status int

const (
	StatusIncomplete Status = 0 // the candidate hasn't finished her registration yet
	StatusPending    Status = 1 // the candidate finished her registration
	StatusRejected   Status = 2 // the candidate's application has been rejected
	StatusSelected   Status = 3 // the candidate has been selected for participation
	StatusAccepted   Status = 4 // the candidate has been assigned to an event and emailed
	StatusConfirmed  Status = 5 // the candidate confirmed her participation
)

var statusNames = map[Status]string{
	StatusIncomplete: "incomplete",
	StatusPending:    "pending",
	StatusRejected:   "rejected",
	StatusSelected:   "selected",
	StatusAccepted:   "accepted",
	StatusConfirmed:  "confirmed",
}

func (s Status) String() string { return statusNames[s] }

func (s Status) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus maps a status name back to its value.
func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// displayStatusOrder ranks statuses by increasing display dominance: when
// a candidate's wishes carry different statuses, the last entry of this
// list present among them is shown as her overall status. Rejected is
// deliberately ranked below incomplete and pending: a live wish always
// wins over a rejection. Inherited behavior; keep as is.
var displayStatusOrder = []Status{
	StatusRejected,
	StatusIncomplete,
	StatusPending,
	StatusSelected,
	StatusAccepted,
	StatusConfirmed,
}

// lockExemptStatuses is the separate lock-gating policy: an applicant is
// locked as soon as any wish leaves this set. Kept distinct from
// displayStatusOrder on purpose, the two policies only happen to agree
// today.
var lockExemptStatuses = map[Status]bool{
	StatusIncomplete: true,
	StatusRejected:   true,
}

// EventWish is an applicant's ranked preference for one event. Unique per
// (applicant, event).
type EventWish struct {
	ID          string        `json:"id"`
	ApplicantID string        `json:"applicant_id"`
	Event       edition.Event `json:"event"`
	Status      Status        `json:"status"`
	// The lower the order, the more preferred the event (1..3).
	Order int `json:"order"`
}

func (w EventWish) String() string {
	return fmt.Sprintf("%s for %s", w.ApplicantID, w.Event.ShortDescription())
}

// Answer is an applicant's response to one question. Unique per
// (applicant, question). The response is stored as a JSON value so that
// booleans, integers, dates and choice keys are kept uniformly.
type Answer struct {
	ID          string        `json:"id"`
	ApplicantID string        `json:"applicant_id"`
	Question    form.Question `json:"question"`
	Response    interface{}   `json:"response"`
}

// IsValid reports whether the answer satisfies its question's final
// completeness gate: always true for non finally-required questions,
// otherwise the response must be non-empty.
func (a Answer) IsValid() bool {
	if !a.Question.FinallyRequired {
		return true
	}
	return !isEmptyResponse(a.Response)
}

// Display renders the stored response. Multichoice answers are looked up
// in the owning question's choice map; an unknown key renders as "".
func (a Answer) Display() string {
	if a.Question.ResponseType == form.MultiChoice {
		key := fmt.Sprintf("%v", a.Response)
		label, ok := a.Question.Meta.Choices[key]
		if !ok {
			return ""
		}
		return label
	}
	if a.Response == nil {
		return ""
	}
	return fmt.Sprintf("%v", a.Response)
}

// isEmptyResponse mirrors javascript/python-style falsiness for the JSON
// value types an answer can hold.
func isEmptyResponse(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case string:
		return val == ""
	case int:
		return val == 0
	case int64:
		return val == 0
	case float64:
		return val == 0
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	}
	return false
}

// Applicant is one candidate's participation record for one edition,
// unique per (user, edition). It exclusively owns its wishes and answers;
// labels are shared references.
type Applicant struct {
	ID          string         `json:"id"`
	User        user.User      `json:"user"`
	EditionYear int            `json:"edition"`
	Wishes      []EventWish    `json:"wishes"`
	Labels      []review.Label `json:"labels"`
}

func (a Applicant) String() string {
	return fmt.Sprintf("%s@%d", a.User.Username, a.EditionYear)
}

// Status derives the applicant's overall status from her wish statuses:
// the most display-dominant status present wins (see displayStatusOrder).
// An applicant with no wishes is incomplete.
func (a Applicant) Status() Status {
	present := make(map[Status]bool, len(a.Wishes))
	for _, w := range a.Wishes {
		present[w.Status] = true
	}
	for i := len(displayStatusOrder) - 1; i >= 0; i-- {
		if present[displayStatusOrder[i]] {
			return displayStatusOrder[i]
		}
	}
	return StatusIncomplete
}

// IsLocked reports whether any wish has advanced past the self-service
// stage; a locked applicant can no longer edit her answers or wishes.
func (a Applicant) IsLocked() bool {
	for _, w := range a.Wishes {
		if !lockExemptStatuses[w.Status] {
			return true
		}
	}
	return false
}

func (a Applicant) HasRejectedChoices() bool {
	for _, w := range a.Wishes {
		if w.Status == StatusRejected {
			return true
		}
	}
	return false
}

func (a Applicant) HasNonRejectedChoices() bool {
	for _, w := range a.Wishes {
		if w.Status != StatusRejected {
			return true
		}
	}
	return false
}

// WishedEventIDs lists the events this applicant applied to, in priority
// order.
func (a Applicant) WishedEventIDs() []string {
	ids := make([]string, 0, len(a.Wishes))
	for _, w := range a.Wishes {
		ids = append(ids, w.Event.ID)
	}
	return ids
}

func (a Applicant) HasLabel(labelID string) bool {
	for _, l := range a.Labels {
		if l.ID == labelID {
			return true
		}
	}
	return false
}
