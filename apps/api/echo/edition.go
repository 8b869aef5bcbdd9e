package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/core/edition"
)

type editionApi struct {
	svc *edition.Service
}

func registerEditionAPI(g *echo.Group, svc *edition.Service) {
	api := editionApi{svc: svc}

	eg := g.Group("/editions")
	eg.GET("", api.query)
	eg.GET("/current", api.current)
	eg.GET("/:year/events", api.queryEvents)
}

func yearParam(ctx echo.Context) (int, error) {
	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil {
		return 0, core.NewValidationError(errors.New("invalid edition year"))
	}
	return year, nil
}

// Handlers

func (api *editionApi) query(ctx echo.Context) error {
	editions, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying editions")
	}
	return ctx.JSON(http.StatusOK, editions)
}

func (api *editionApi) current(ctx echo.Context) error {
	ed, err := api.svc.Current(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting current edition")
	}
	return ctx.JSON(http.StatusOK, ed)
}

func (api *editionApi) queryEvents(ctx echo.Context) error {
	year, err := yearParam(ctx)
	if err != nil {
		return err
	}

	var events []edition.Event
	if ctx.QueryParam("open") == "true" {
		events, err = api.svc.OpenEvents(ctx.Request().Context(), year, time.Now())
	} else {
		events, err = api.svc.QueryEvents(ctx.Request().Context(), year)
	}
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	return ctx.JSON(http.StatusOK, events)
}
