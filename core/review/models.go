package review

// Label is a short informal tag staff attach to applicants while
// reviewing. Labels never influence the applicant's status; free writing
// is deliberately not allowed, to keep reviews GDPR-safe.
type Label struct {
	ID      string `json:"id"`
	Display string `json:"display"`
}

func (l Label) String() string { return l.Display }

// Corrector grants a user permission to review applicants for one event.
type Corrector struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	UserID  int    `json:"user_id"`
}
