package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ushauri/core/meeting"
)

type meetingApi struct {
	svc meeting.Service
}

func registerMeetingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc meeting.Service) {
	api := meetingApi{svc: svc}

	mg := g.Group("/meet", jwt)
	mg.POST("/create", api.book)
	mg.GET("", api.list)
	mg.GET("/:id", api.retrieve)
	mg.PUT("/:id", api.update)
}

// Handlers

func (api *meetingApi) book(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data meeting.NewMeeting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMeeting")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	m, err := api.svc.Book(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, envelope{
		Success: true,
		Message: "Meeting scheduled successfully",
		Data:    m,
	})
}

func (api *meetingApi) list(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	meetings, err := api.svc.ListForUser(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, envelope{Success: true, Data: meetings})
}

func (api *meetingApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	detail, err := api.svc.Get(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, envelope{Success: true, Data: detail})
}

func (api *meetingApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data meeting.UpdateMeeting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMeeting")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	m, err := api.svc.Update(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, envelope{Success: true, Data: m})
}
