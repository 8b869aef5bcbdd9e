package form

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
)

// FieldKind tags the input-field variant a question projects to. The
// rendering layer consumes these as plain data and never sees Question
// internals.
type FieldKind string

const (
	FieldBoolean     FieldKind = "boolean"
	FieldInteger     FieldKind = "integer"
	FieldDate        FieldKind = "date"
	FieldShortText   FieldKind = "short_text"
	FieldLongText    FieldKind = "long_text"
	FieldMultiChoice FieldKind = "multi_choice"
)

// Choice is one selectable option of a multichoice field, in stable key
// order.
type Choice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Field is the structural description of one questionnaire input.
type Field struct {
	QuestionID string    `json:"question_id"`
	Kind       FieldKind `json:"kind"`
	Label      string    `json:"label"`
	HelpText   string    `json:"help_text,omitempty"`
	Required   bool      `json:"required"`
	Choices    []Choice  `json:"choices,omitempty"`
	// Initial is the applicant's existing answer, if any.
	Initial interface{} `json:"initial,omitempty"`
}

// FieldFor projects a question onto its input-field variant. Required-ness
// follows AlwaysRequired: FinallyRequired is a stricter gate checked only
// when the application is validated, never at plain form submission.
func FieldFor(q Question) (Field, error) {
	fld := Field{
		QuestionID: q.ID,
		Label:      q.String(),
		HelpText:   q.Comment,
		Required:   q.AlwaysRequired,
	}

	switch q.ResponseType {
	case Boolean:
		fld.Kind = FieldBoolean
	case Integer:
		fld.Kind = FieldInteger
	case Date:
		fld.Kind = FieldDate
	case String:
		fld.Kind = FieldShortText
	case Text:
		fld.Kind = FieldLongText
	case MultiChoice:
		fld.Kind = FieldMultiChoice
		fld.Choices = sortedChoices(q.Meta.Choices)
	default:
		return Field{}, core.NewValidationError(errors.Errorf("unknown response type %d", q.ResponseType))
	}
	return fld, nil
}

func sortedChoices(choices map[string]string) []Choice {
	keys := make([]string, 0, len(choices))
	for key := range choices {
		keys = append(keys, key)
	}
	// option keys are short strings ("0", "1", ...); plain sort keeps the
	// order stable across requests
	sort.Strings(keys)
	out := make([]Choice, 0, len(keys))
	for _, key := range keys {
		out = append(out, Choice{Key: key, Label: choices[key]})
	}
	return out
}
