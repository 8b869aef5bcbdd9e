package form

// AnswerType enumerates how a question's answer is represented.
type AnswerType int

const (
	Boolean AnswerType = iota
	Integer
	Date
	String // short text
	Text   // long text
	MultiChoice
)

var answerTypeNames = map[AnswerType]string{
	Boolean:     "boolean",
	Integer:     "integer",
	Date:        "date",
	String:      "string",
	Text:        "text",
	MultiChoice: "multichoice",
}

func (t AnswerType) String() string { return answerTypeNames[t] }

func (t AnswerType) IsValid() bool {
	_, ok := answerTypeNames[t]
	return ok
}

// ParseAnswerType maps a type name back to its AnswerType.
func ParseAnswerType(name string) (AnswerType, bool) {
	for t, n := range answerTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// QuestionMeta carries type-specific constraints; for multichoice
// questions, Choices maps option key to display label.
type QuestionMeta struct {
	Choices map[string]string `json:"choices,omitempty"`
}

// Question is a reusable questionnaire item.
type Question struct {
	ID    string `json:"id"`
	Label string `json:"question"`
	// Potential additional indications about the question.
	Comment      string     `json:"comment"`
	ResponseType AnswerType `json:"response_type"`
	// The applicant must fill this field to save the form at all.
	AlwaysRequired bool `json:"always_required"`
	// The applicant must fill this field to validate her application.
	FinallyRequired bool         `json:"finally_required"`
	Meta            QuestionMeta `json:"meta"`
}

func (q Question) String() string {
	if q.FinallyRequired {
		return q.Label + " (*)"
	}
	return q.Label
}

// Form is a named, ordered list of questions. Questions are shared
// between forms; the ordering integer lives on the join table.
type Form struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
