package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/prologin/gccsite/core/sponsor"
)

type sponsorApi struct {
	svc *sponsor.Service
}

func registerSponsorAPI(g *echo.Group, svc *sponsor.Service) {
	api := sponsorApi{svc: svc}

	g.GET("/sponsors", api.query)
}

// Handlers

func (api *sponsorApi) query(ctx echo.Context) error {
	sponsors, err := api.svc.Active(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying sponsors")
	}
	return ctx.JSON(http.StatusOK, sponsors)
}
