package applicant

import (
	"context"
	"strconv"
	"strings"

	"github.com/prologin/gccsite/core/export"
	"github.com/prologin/gccsite/core/form"
)

// emptyCell marks a question the applicant left unanswered in exports, so
// reviewers can tell a blank answer from a missing one.
const emptyCell = "(empty)"

// ExportRecord is one applicant flattened for CSV export, carrying the
// signup form questions so answers can be rendered under their labels.
type ExportRecord struct {
	Applicant Applicant
	Questions []form.Question
	Answers   map[string]Answer // by question id
}

var _ export.Exportable = ExportRecord{}

// ExportData flattens the applicant into identity columns followed by one
// column per form question, named after the question label.
func (r ExportRecord) ExportData() *export.OrderedMap {
	data := export.NewOrderedMap()
	data.Set("Username", r.Applicant.User.Username)
	data.Set("First name", r.Applicant.User.FirstName)
	data.Set("Last name", r.Applicant.User.LastName)
	data.Set("Email", r.Applicant.User.Email)
	data.Set("Edition", strconv.Itoa(r.Applicant.EditionYear))

	labels := make([]string, 0, len(r.Applicant.Labels))
	for _, l := range r.Applicant.Labels {
		labels = append(labels, l.Display)
	}
	data.Set("Labels", strings.Join(labels, ", "))

	for _, q := range r.Questions {
		ans, ok := r.Answers[q.ID]
		if !ok {
			data.Set(q.String(), emptyCell)
			continue
		}
		data.Set(q.String(), ans.Display())
	}
	return data
}

// ExportRecords gathers the applicants holding one of the given statuses
// on the event, ready for CSV export. With no status filter, every
// decided status is included.
func (svc *Service) ExportRecords(ctx context.Context, eventID string, statuses ...Status) ([]export.Exportable, error) {
	if len(statuses) == 0 {
		statuses = []Status{StatusSelected, StatusAccepted, StatusConfirmed}
	}

	seen := make(map[string]bool)
	records := make([]export.Exportable, 0)
	for _, status := range statuses {
		apps, err := svc.ApplicantsForEventStatus(ctx, eventID, status)
		if err != nil {
			return nil, err
		}
		for _, app := range apps {
			if seen[app.ID] {
				continue
			}
			seen[app.ID] = true

			ed, err := svc.edSvc.GetByYear(ctx, app.EditionYear)
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
			records = append(records, ExportRecord{Applicant: app, Questions: questions, Answers: answers})
		}
	}
	return records, nil
}
