package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ushauri/core/roadmap"
)

type roadmapApi struct {
	svc roadmap.Service
}

func registerRoadmapAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc roadmap.Service) {
	api := roadmapApi{svc: svc}
	g.POST("/roadmap", api.generate, jwt)
}

func (api *roadmapApi) generate(ctx echo.Context) error {
	var data roadmap.Query
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Query")
	}

	res, err := api.svc.Generate(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, RoadmapResponse{
		Success:  true,
		Roadmap:  res.Roadmap,
		Fallback: res.Fallback,
	})
}

type RoadmapResponse struct {
	Success  bool            `json:"success"`
	Roadmap  roadmap.Roadmap `json:"roadmap"`
	Fallback bool            `json:"fallback,omitempty"`
}
