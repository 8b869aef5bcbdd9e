package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/form"
)

// newEdition opens a new yearly edition, creating its signup form when it
// does not exist yet.
func (cli *commandLine) newEdition(year int, formName string) error {
	ctx := context.Background()

	if formName == "" {
		formName = "signup-" + strconv.Itoa(year)
	}
	f, err := cli.formSvc.GetOrCreateByName(ctx, formName)
	if err != nil {
		return err
	}

	ed, err := cli.edSvc.Create(ctx, edition.Edition{Year: year, SignupFormID: f.ID})
	if err != nil {
		return err
	}
	logger.Printf("edition %d created with signup form %q (%s)\n", ed.Year, f.Name, f.ID)
	return nil
}

// addEvent schedules a session within an edition; dates are ordered
// event start, event end, signup start, signup end.
func (cli *commandLine) addEvent(year int, center edition.Center, dates []time.Time, isLong bool) error {
	ctx := context.Background()

	c, err := cli.edSvc.GetOrCreateCenter(ctx, center)
	if err != nil {
		return err
	}

	ev, err := cli.edSvc.CreateEvent(ctx, edition.Event{
		EditionYear: year,
		Center:      c,
		IsLong:      isLong,
		EventStart:  dates[0],
		EventEnd:    dates[1],
		SignupStart: dates[2],
		SignupEnd:   dates[3],
	})
	if err != nil {
		return err
	}
	logger.Printf("event %s created: %s\n", ev.ID, ev.ShortDescription())
	return nil
}

func (cli *commandLine) addQuestion(formID, label, typeName, comment string,
	alwaysRequired, finallyRequired bool, choices string, order int) error {
	ctx := context.Background()

	respType, ok := form.ParseAnswerType(typeName)
	if !ok {
		return fmt.Errorf("invalid response type %q", typeName)
	}

	var meta form.QuestionMeta
	if choices != "" {
		meta.Choices = make(map[string]string)
		for _, pair := range strings.Split(choices, ",") {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) != 2 {
				return fmt.Errorf("invalid choice %q: expected key=label", pair)
			}
			meta.Choices[kv[0]] = kv[1]
		}
	}

	q, err := cli.formSvc.AddQuestion(ctx, formID, form.Question{
		Label:           label,
		Comment:         comment,
		ResponseType:    respType,
		AlwaysRequired:  alwaysRequired,
		FinallyRequired: finallyRequired,
		Meta:            meta,
	}, order)
	if err != nil {
		return err
	}
	logger.Printf("question %s appended to form %s\n", q.ID, formID)
	return nil
}
