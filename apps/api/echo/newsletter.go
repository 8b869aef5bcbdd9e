package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/newsletter"
)

type newsletterApi struct {
	svc      *newsletter.Service
	validate *validator.Validate
}

// registerNewsletterAPI mounts the public newsletter endpoints. No
// authentication: subscription is open to anyone and unsubscription is
// authorized by the token from the mailing link.
func registerNewsletterAPI(g *echo.Group, svc *newsletter.Service, validate *validator.Validate) {
	api := newsletterApi{svc: svc, validate: validate}

	ng := g.Group("/newsletter")
	ng.POST("/subscribe", api.subscribe)
	ng.POST("/unsubscribe/:id/:token", api.unsubscribe)
}

// Handlers

func (api *newsletterApi) subscribe(ctx echo.Context) error {
	var data SubscribeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubscribeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.svc.Subscribe(ctx.Request().Context(), data.Email); err != nil {
		return errors.Wrap(err, "subscribing")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: "Subscribed to the newsletter."})
}

func (api *newsletterApi) unsubscribe(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return core.NewValidationError(errors.New("invalid subscriber id"))
	}

	if err := api.svc.Unsubscribe(ctx.Request().Context(), id, ctx.Param("token")); err != nil {
		return errors.Wrap(err, "unsubscribing")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Unsubscribed from the newsletter."})
}
