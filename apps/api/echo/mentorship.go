package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ushauri/core"
	"github.com/trezcool/ushauri/core/mentorship"
	"github.com/trezcool/ushauri/core/user"
)

type mentorshipApi struct {
	svc mentorship.Service
}

func registerMentorshipAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc mentorship.Service) {
	api := mentorshipApi{svc: svc}

	mg := g.Group("/mentorship", jwt)
	mg.POST("", api.establish)
	mg.GET("", api.list)
	mg.DELETE("", api.dissolve)
}

// Handlers

func (api *mentorshipApi) establish(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data EstablishRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EstablishRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.Establish(ctx.Request().Context(), claims.Subject, data.MentorID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Mentorship relationship established successfully",
	})
}

// list returns the relationship from the caller's side: a student sees their
// mentors, a mentor sees their students plus the lifetime counter.
func (api *mentorshipApi) list(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	switch claims.Role {
	case user.RoleStudent:
		mentors, err := api.svc.ListForStudent(ctx.Request().Context(), claims.Subject)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, envelope{Success: true, Data: MentorList{Mentors: mentors}})
	case user.RoleMentor:
		students, err := api.svc.ListForMentor(ctx.Request().Context(), claims.Subject)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, envelope{Success: true, Data: students})
	}
	return core.NewValidationError(errors.New("invalid user role"))
}

func (api *mentorshipApi) dissolve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	targetID := ctx.QueryParam("id")
	if targetID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "target ID is required"})
	}

	if err := api.svc.Dissolve(ctx.Request().Context(), claims.Subject, claims.Role, targetID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Mentorship relationship removed successfully",
	})
}

type (
	EstablishRequest struct {
		MentorID string `json:"mentorId" validate:"required"`
	}

	MentorList struct {
		Mentors []user.User `json:"mentors"`
	}
)

func (er *EstablishRequest) Validate() error {
	er.MentorID = core.CleanString(er.MentorID)
	return core.Validate.Struct(er)
}
