package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/form"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/user"
	"github.com/prologin/gccsite/storage/database"
)

var errHelp = errors.New("help provided")

const dateFormat = "2006-01-02"

type commandLine struct {
	db      *database.DB
	usrSvc  *user.Service
	edSvc   *edition.Service
	formSvc *form.Service
	revSvc  *review.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb - create the database and its app user if missing")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  newedition -year YEAR [-form NAME] - open a new edition with its signup form")
	fmt.Println("  addevent -year YEAR -center NAME -start DATE -end DATE -signup-start DATE -signup-end DATE [-long] - add a camp session")
	fmt.Println("  addquestion -form ID -label LABEL -type TYPE [OPTIONS] - append a question to a form")
	fmt.Println("  addcorrector -username USERNAME -event ID - grant review permission on an event")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	newEditionCmd := flag.NewFlagSet("newedition", flag.ExitOnError)
	newEditionYear := newEditionCmd.Int("year", 0, "The edition year.")
	newEditionForm := newEditionCmd.String("form", "", "The signup form name. Defaults to signup-YEAR.")

	addEventCmd := flag.NewFlagSet("addevent", flag.ExitOnError)
	addEventYear := addEventCmd.Int("year", 0, "The edition year.")
	addEventCenter := addEventCmd.String("center", "", "The hosting center name; created if missing.")
	addEventAddress := addEventCmd.String("address", "", "The center's street address.")
	addEventCity := addEventCmd.String("city", "", "The center's city.")
	addEventPostal := addEventCmd.String("postal", "", "The center's postal code.")
	addEventStart := addEventCmd.String("start", "", "Event start date (YYYY-MM-DD).")
	addEventEnd := addEventCmd.String("end", "", "Event end date (YYYY-MM-DD).")
	addEventSignupStart := addEventCmd.String("signup-start", "", "Signup window opening date (YYYY-MM-DD).")
	addEventSignupEnd := addEventCmd.String("signup-end", "", "Signup window closing date (YYYY-MM-DD).")
	addEventLong := addEventCmd.Bool("long", false, "Mark the event as a long (summer camp) session.")

	addQuestionCmd := flag.NewFlagSet("addquestion", flag.ExitOnError)
	addQuestionForm := addQuestionCmd.String("form", "", "The form ID.")
	addQuestionLabel := addQuestionCmd.String("label", "", "The question text.")
	addQuestionType := addQuestionCmd.String("type", "", "Response type: boolean, integer, date, string, text or multichoice.")
	addQuestionComment := addQuestionCmd.String("comment", "", "Additional indications shown under the question.")
	addQuestionAlways := addQuestionCmd.Bool("always-required", false, "Require an answer to save the form at all.")
	addQuestionFinally := addQuestionCmd.Bool("finally-required", false, "Require an answer to validate the application.")
	addQuestionChoices := addQuestionCmd.String("choices", "", "Multichoice options as key=label pairs, comma-separated.")
	addQuestionOrder := addQuestionCmd.Int("order", 0, "Ordering position within the form.")

	addCorrectorCmd := flag.NewFlagSet("addcorrector", flag.ExitOnError)
	addCorrectorUname := addCorrectorCmd.String("username", "", "The corrector's username.")
	addCorrectorEvent := addCorrectorCmd.String("event", "", "The event ID.")

	switch args[1] {
	case "createdb":
		return cli.createDB()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "newedition":
		if err := newEditionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *newEditionYear == 0 {
			newEditionCmd.Usage()
			return errHelp
		}
		return cli.newEdition(*newEditionYear, *newEditionForm)
	case "addevent":
		if err := addEventCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addEventYear == 0 || *addEventCenter == "" ||
			*addEventStart == "" || *addEventEnd == "" ||
			*addEventSignupStart == "" || *addEventSignupEnd == "" {
			addEventCmd.Usage()
			return errHelp
		}
		dates, err := parseDates(*addEventStart, *addEventEnd, *addEventSignupStart, *addEventSignupEnd)
		if err != nil {
			return err
		}
		center := edition.Center{
			Name:       *addEventCenter,
			Address:    *addEventAddress,
			City:       *addEventCity,
			PostalCode: *addEventPostal,
		}
		return cli.addEvent(*addEventYear, center, dates, *addEventLong)
	case "addquestion":
		if err := addQuestionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addQuestionForm == "" || *addQuestionLabel == "" || *addQuestionType == "" {
			addQuestionCmd.Usage()
			return errHelp
		}
		return cli.addQuestion(
			*addQuestionForm, *addQuestionLabel, *addQuestionType, *addQuestionComment,
			*addQuestionAlways, *addQuestionFinally, *addQuestionChoices, *addQuestionOrder,
		)
	case "addcorrector":
		if err := addCorrectorCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addCorrectorUname == "" || *addCorrectorEvent == "" {
			addCorrectorCmd.Usage()
			return errHelp
		}
		return cli.addCorrector(*addCorrectorUname, *addCorrectorEvent)
	default:
		cli.printUsage()
		return errHelp
	}
}

func parseDates(values ...string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := time.Parse(dateFormat, v)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", v)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
