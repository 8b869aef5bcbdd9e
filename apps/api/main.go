package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/prologin/gccsite/apps/api/echo"
	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/form"
	"github.com/prologin/gccsite/core/newsletter"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/sponsor"
	"github.com/prologin/gccsite/core/user"
	emailsvc "github.com/prologin/gccsite/services/email"
	logsvc "github.com/prologin/gccsite/services/logger"
	"github.com/prologin/gccsite/storage/database"
	sqlxrepos "github.com/prologin/gccsite/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()
	if err = db.Ping(); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	validate := core.NewValidator()

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), validate)
	edSvc := edition.NewService(sqlxrepos.NewEditionRepository(db))
	formSvc := form.NewService(sqlxrepos.NewFormRepository(db))
	revRepo := sqlxrepos.NewReviewRepository(db)
	revSvc := review.NewService(revRepo)
	rules := review.NewRules(revRepo)
	appSvc := applicant.NewService(db, sqlxrepos.NewApplicantRepository(db), edSvc, formSvc, revSvc, rules)
	newsSvc := newsletter.NewService(sqlxrepos.NewNewsletterRepository(db), conf.SecretKey, mailSvc)
	spSvc := sponsor.NewService(sqlxrepos.NewSponsorRepository(db))

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Addr:          conf.Server.Address(),
			Logger:        logger,
			MailSvc:       mailSvc,
			UserSvc:       usrSvc,
			EditionSvc:    edSvc,
			ApplicantSvc:  appSvc,
			ReviewSvc:     revSvc,
			Rules:         rules,
			NewsletterSvc: newsSvc,
			SponsorSvc:    spSvc,
		},
		shutdown,
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("graceful shutdown failed: %v", err), err)
	}
}
