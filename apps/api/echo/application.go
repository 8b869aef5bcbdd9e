package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core/applicant"
	"github.com/prologin/gccsite/core/edition"
	"github.com/prologin/gccsite/core/user"
)

// applicationApi is the self-service surface: a candidate manages her own
// application for one edition.
type applicationApi struct {
	userSvc *user.Service
	appSvc  *applicant.Service
	edSvc   *edition.Service
}

func registerApplicationAPI(g *echo.Group, jwt echo.MiddlewareFunc,
	userSvc *user.Service, appSvc *applicant.Service, edSvc *edition.Service) {
	api := applicationApi{
		userSvc: userSvc,
		appSvc:  appSvc,
		edSvc:   edSvc,
	}

	ag := g.Group("/editions/:year/application", jwt)
	ag.GET("", api.retrieve)
	ag.PUT("/answers", api.saveAnswers)
	ag.PUT("/wishes", api.saveWishes)
	ag.POST("/validate", api.validate)

	g.POST("/wishes/:id/confirm", api.confirmWish, jwt)
}

// Handlers

func (api *applicationApi) retrieve(ctx echo.Context) error {
	year, err := yearParam(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.appSvc.ForUserAndEdition(ctx.Request().Context(), usr, year)
	if err != nil {
		return errors.Wrap(err, "getting applicant")
	}
	fields, err := api.appSvc.Questionnaire(ctx.Request().Context(), usr, year)
	if err != nil {
		return errors.Wrap(err, "building questionnaire")
	}

	return ctx.JSON(http.StatusOK, ApplicationResponse{
		Applicant:             app,
		Status:                app.Status().String(),
		IsLocked:              app.IsLocked(),
		HasRejectedChoices:    app.HasRejectedChoices(),
		HasNonRejectedChoices: app.HasNonRejectedChoices(),
		Fields:                fields,
	})
}

func (api *applicationApi) saveAnswers(ctx echo.Context) error {
	year, err := yearParam(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data AnswersRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnswersRequest")
	}

	if err := api.appSvc.SaveAnswers(ctx.Request().Context(), usr, year, data.Answers); err != nil {
		return errors.Wrap(err, "saving answers")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Answers saved."})
}

func (api *applicationApi) saveWishes(ctx echo.Context) error {
	year, err := yearParam(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data WishesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WishesRequest")
	}

	if err := api.appSvc.SaveWishes(ctx.Request().Context(), usr, year, data.EventIDs()); err != nil {
		return errors.Wrap(err, "saving wishes")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Wishes saved."})
}

func (api *applicationApi) validate(ctx echo.Context) error {
	year, err := yearParam(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.appSvc.Validate(ctx.Request().Context(), usr, year); err != nil {
		return errors.Wrap(err, "validating application")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Your application has been submitted."})
}

func (api *applicationApi) confirmWish(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.appSvc.ConfirmWish(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "confirming wish")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Participation confirmed. See you there!"})
}
