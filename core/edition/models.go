package edition

import (
	"strconv"
	"strings"
	"time"
)

// Edition is one yearly run of the program, keyed by its year.
type Edition struct {
	Year         int    `json:"year"`
	SignupFormID string `json:"signup_form_id"`
}

func (e Edition) String() string { return strconv.Itoa(e.Year) }

// Center is a physical location hosting camp sessions.
type Center struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Event is one camp session at one center within an edition. The signup
// window is expected to precede or overlap the event window.
type Event struct {
	ID          string    `json:"id"`
	EditionYear int       `json:"edition"`
	Center      Center    `json:"center"`
	IsLong      bool      `json:"is_long"`
	EventStart  time.Time `json:"event_start"`
	EventEnd    time.Time `json:"event_end"`
	SignupStart time.Time `json:"signup_start"`
	SignupEnd   time.Time `json:"signup_end"`
}

// IsOpenForSignup reports whether the signup window contains `at`.
func (ev Event) IsOpenForSignup(at time.Time) bool {
	return ev.SignupStart.Before(at) && ev.SignupEnd.After(at)
}

func (ev Event) ShortDescription() string {
	return ev.Center.Name + " – " + ev.EventStart.Format("2006-01-02") + " to " + ev.EventEnd.Format("2006-01-02")
}

// CSVName builds the file-name fragment used by the staff exports.
func (ev Event) CSVName() string {
	return ev.EventStart.Format("2006-01-02") + "_" + strings.ReplaceAll(ev.Center.Name, " ", "_")
}
