package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ushauri/core"
	"github.com/trezcool/ushauri/core/user"
)

type userApi struct {
	svc user.Service
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.Service) {
	api := userApi{svc: svc}

	// un-authed endpoints
	// TODO: rate limit `/auth` & `/auth/password-reset`
	g.POST("/auth", api.auth)
	g.POST("/auth/password-reset", api.resetPassword)
	g.POST("/auth/password-reset-confirm", api.confirmPasswordReset)
	g.GET("/mentors", api.queryMentors)
	g.POST("/mentors", api.retrieveMentor)

	// authed endpoints
	pg := g.Group("/profile", jwt)
	pg.GET("", api.retrieveProfile)
	pg.PUT("", api.updateProfile)
}

// Handlers

// auth dispatches on the `type` query param: signup or login.
func (api *userApi) auth(ctx echo.Context) error {
	switch ctx.QueryParam("type") {
	case "signup":
		return api.signup(ctx)
	case "login":
		return api.login(ctx)
	}
	return core.NewValidationError(errors.New("invalid auth type. Use login or signup."))
}

func (api *userApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusCreated, envelope{
		Success: true,
		Message: "Registration successful",
		Data:    AuthResponse{User: newAuthUser(usr), Token: token},
	})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return err
	}
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Login successful",
		Data:    AuthResponse{User: newAuthUser(usr), Token: token},
	})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, envelope{Success: true, Message: "Password has been reset with the new password."})
}

func (api *userApi) retrieveProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, envelope{Success: true, Data: usr})
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(usr, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.UpdateProfile(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return err
	}
	ctx.Set(contextUserKey, usr)

	return ctx.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Profile updated successfully",
		Data:    usr,
	})
}

func (api *userApi) queryMentors(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return core.NewValidationError(errors.New("invalid query parameters"))
	}

	page, err := api.svc.QueryMentors(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying mentors")
	}
	return ctx.JSON(http.StatusOK, MentorPageResponse{Success: true, MentorPage: page})
}

func (api *userApi) retrieveMentor(ctx echo.Context) error {
	var data MentorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MentorRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	mentor, err := api.svc.GetMentorByID(ctx.Request().Context(), data.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, envelope{Success: true, Data: mentor})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	// AuthUser is the trimmed account payload returned on signup and login.
	AuthUser struct {
		ID    string    `json:"id"`
		Name  string    `json:"name"`
		Email string    `json:"email"`
		Role  user.Role `json:"role"`
	}

	AuthResponse struct {
		User  AuthUser `json:"user"`
		Token string   `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	MentorRequest struct {
		ID string `json:"id" validate:"required"`
	}

	MentorPageResponse struct {
		Success bool `json:"success"`
		user.MentorPage
	}
)

func newAuthUser(usr user.User) AuthUser {
	return AuthUser{ID: usr.ID, Name: usr.Name, Email: usr.Email, Role: usr.Role}
}

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}

func (mr *MentorRequest) Validate() error {
	mr.ID = core.CleanString(mr.ID)
	return core.Validate.Struct(mr)
}
