package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/ushauri/core"
	"github.com/trezcool/ushauri/core/meeting"
	"github.com/trezcool/ushauri/core/user"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHTTPNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// envelope is the uniform response body. Message is a string on most
// responses and a field-to-error map on validation failures.
type envelope struct {
	Success bool        `json:"success"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// appHTTPErrorHandler maps application errors onto the response envelope.
// Anything unrecognized is a 500 with no internals leaked.
func appHTTPErrorHandler(err error, c echo.Context) {
	var code int
	var message interface{}

	switch cause := pkgerrors.Cause(err).(type) {
	case *echo.HTTPError:
		if cause == middleware.ErrJWTMissing {
			code = http.StatusUnauthorized
			message = "user not authenticated"
			break
		}
		if cause.Internal != nil {
			if herr, ok := cause.Internal.(*echo.HTTPError); ok {
				cause = herr
			}
		}
		code = cause.Code
		message = cause.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string)
		for _, vErr := range cause {
			fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
		}
		code = http.StatusBadRequest
		message = fldErrs
	case *core.ValidationError:
		if cause.Fields != nil {
			fldErrs := make(map[string]string)
			for _, fErr := range cause.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			message = fldErrs
		} else {
			message = cause.Error()
		}
		code = http.StatusBadRequest
	case *core.ConflictError:
		code = http.StatusConflict
		message = cause.Error()
	case *core.NotFoundError:
		code = http.StatusNotFound
		message = cause.Error()
	default:
		switch pkgerrors.Cause(err) {
		case user.ErrAuthenticationFailed, user.ErrInvalidPassword:
			code = http.StatusUnauthorized
			message = pkgerrors.Cause(err).Error()
		case user.ErrNotFound, meeting.ErrNotFound:
			code = http.StatusNotFound
			message = pkgerrors.Cause(err).Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)
		}
	}

	if c.Echo().Debug && code == http.StatusInternalServerError {
		message = err.Error()
	}

	// Send response
	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead { // Issue #608
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, envelope{Success: false, Message: message})
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}
