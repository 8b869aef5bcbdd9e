package main

import (
	"log"
	"os"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/form"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/user"
	"github.com/prologin/gccsite/storage/database"
	sqlxrepos "github.com/prologin/gccsite/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	// start CLI
	cli := commandLine{
		db:      db,
		usrSvc:  user.NewService(sqlxrepos.NewUserRepository(db), core.NewValidator()),
		edSvc:   edition.NewService(sqlxrepos.NewEditionRepository(db)),
		formSvc: form.NewService(sqlxrepos.NewFormRepository(db)),
		revSvc:  review.NewService(sqlxrepos.NewReviewRepository(db)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
