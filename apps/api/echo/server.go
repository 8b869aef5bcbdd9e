package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/newsletter"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/sponsor"
	"github.com/prologin/gccsite/core/user"
)

type (
	Options struct {
		Addr           string
		DisableReqLogs bool

		Logger        core.Logger
		MailSvc       core.EmailService
		UserSvc       *user.Service
		EditionSvc    *edition.Service
		ApplicantSvc  *applicant.Service
		ReviewSvc     *review.Service
		Rules         *review.Rules
		NewsletterSvc *newsletter.Service
		SponsorSvc    *sponsor.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options, shutdown chan os.Signal) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: shutdown,
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)
	validate := core.NewValidator()

	registerAuthAPI(v1, jwt, s.opts.UserSvc)
	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerEditionAPI(v1, s.opts.EditionSvc)
	registerApplicationAPI(v1, jwt, s.opts.UserSvc, s.opts.ApplicantSvc, s.opts.EditionSvc)
	registerReviewAPI(v1, jwt, s.opts.UserSvc, s.opts.ApplicantSvc, s.opts.ReviewSvc, s.opts.Rules, s.opts.EditionSvc, s.opts.MailSvc, validate)
	registerNewsletterAPI(v1, s.opts.NewsletterSvc, validate)
	registerSponsorAPI(v1, s.opts.SponsorSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// signalShutdown sends the app a SIGTERM for a graceful shutdown.
func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- syscall.SIGTERM
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Girls Can Code! API")
}
