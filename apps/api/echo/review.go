package echoapi

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/export"
	"github.com/prologin/gccsite/core/review"
	"github.com/prologin/gccsite/core/user"
)

// reviewApi is the staff-only surface: labels, per-event applicant
// listings, wish decisions and CSV exports. Every route sits behind the
// staff middleware; finer per-event permissions are enforced by Rules
// inside the services.
type reviewApi struct {
	userSvc  *user.Service
	appSvc   *applicant.Service
	revSvc   *review.Service
	rules    *review.Rules
	edSvc    *edition.Service
	mailSvc  core.EmailService
	validate *validator.Validate
}

func registerReviewAPI(g *echo.Group, jwt echo.MiddlewareFunc,
	userSvc *user.Service, appSvc *applicant.Service, revSvc *review.Service,
	rules *review.Rules, edSvc *edition.Service, mailSvc core.EmailService, validate *validator.Validate) {
	api := reviewApi{
		userSvc:  userSvc,
		appSvc:   appSvc,
		revSvc:   revSvc,
		rules:    rules,
		edSvc:    edSvc,
		mailSvc:  mailSvc,
		validate: validate,
	}

	rg := g.Group("", jwt, staffMiddleware())

	rg.GET("/labels", api.queryLabels)
	rg.POST("/labels", api.createLabel)

	rg.GET("/events/:id/applicants", api.queryApplicants)
	rg.GET("/events/:id/counter", api.counter)
	rg.GET("/events/:id/export", api.exportCSV)

	rg.PUT("/wishes/:id/status", api.setWishStatus)

	rg.POST("/applicants/:id/labels/:labelID", api.addLabel)
	rg.DELETE("/applicants/:id/labels/:labelID", api.removeLabel)
}

// Handlers

func (api *reviewApi) queryLabels(ctx echo.Context) error {
	labels, err := api.revSvc.QueryLabels(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying labels")
	}
	return ctx.JSON(http.StatusOK, labels)
}

func (api *reviewApi) createLabel(ctx echo.Context) error {
	var data LabelRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LabelRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	label, err := api.revSvc.CreateLabel(ctx.Request().Context(), data.Display)
	if err != nil {
		return errors.Wrap(err, "creating label")
	}
	return ctx.JSON(http.StatusCreated, label)
}

func (api *reviewApi) queryApplicants(ctx echo.Context) error {
	status, ok := applicant.ParseStatus(ctx.QueryParam("status"))
	if !ok {
		return core.NewValidationError(errors.New("invalid status"))
	}
	var ord Ordering
	ord.Bind(ctx)

	apps, err := api.appSvc.ApplicantsForEventStatus(ctx.Request().Context(), ctx.Param("id"), status, ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying applicants")
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *reviewApi) counter(ctx echo.Context) error {
	count, err := api.appSvc.AcceptanceCounter(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "counting acceptable applicants")
	}
	return ctx.JSON(http.StatusOK, CounterResponse{Count: count})
}

func (api *reviewApi) setWishStatus(ctx echo.Context) error {
	var data WishStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WishStatusRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	status, ok := applicant.ParseStatus(data.Status)
	if !ok {
		return core.NewValidationError(errors.New("invalid status"))
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	becameAccepted, err := api.appSvc.SetWishStatus(ctx.Request().Context(), usr, ctx.Param("id"), status)
	if err != nil {
		return errors.Wrap(err, "setting wish status")
	}
	if becameAccepted {
		api.notifyAccepted(ctx.Request().Context(), ctx.Param("id"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Wish status updated."})
}

// notifyAccepted emails the applicant that a place is waiting for her
// confirmation. Best effort; a mail failure never fails the decision.
func (api *reviewApi) notifyAccepted(ctx context.Context, wishID string) {
	if api.mailSvc == nil {
		return
	}
	wish, err := api.appSvc.Wish(ctx, wishID)
	if err != nil {
		return
	}
	app, err := api.appSvc.GetByID(ctx, wish.ApplicantID)
	if err != nil {
		return
	}
	api.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: app.User.FirstName + " " + app.User.LastName, Address: app.User.Email}},
		Subject:      "Your application has been accepted",
		TemplateName: "wish-accepted",
		TemplateData: struct {
			User  user.User
			Event edition.Event
		}{app.User, wish.Event},
	})
}

func (api *reviewApi) addLabel(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.appSvc.AddLabel(ctx.Request().Context(), usr, ctx.Param("id"), ctx.Param("labelID"))
	if err != nil {
		return errors.Wrap(err, "adding label")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *reviewApi) removeLabel(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.appSvc.RemoveLabel(ctx.Request().Context(), usr, ctx.Param("id"), ctx.Param("labelID"))
	if err != nil {
		return errors.Wrap(err, "removing label")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *reviewApi) exportCSV(ctx echo.Context) error {
	event, err := api.edSvc.GetEvent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting event")
	}

	records, err := api.appSvc.ExportRecords(ctx.Request().Context(), event.ID)
	if err != nil {
		return errors.Wrap(err, "building export records")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+event.CSVName()+`.csv"`)
	res.WriteHeader(http.StatusOK)
	return errors.Wrap(export.WriteCSV(res, records), "writing CSV export")
}
