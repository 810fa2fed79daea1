package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-room-reservation/internal/middleware"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// getUserID returns the authenticated guest id stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	if uid, ok := c.Get(middleware.CtxUserID).(uint64); ok && uid != 0 {
		return uid, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "min":
			msgs = append(msgs, field+" must be at least "+fe.Param()+" characters")
		case "eqfield":
			msgs = append(msgs, "password confirmation does not match")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// internalError logs a storage or infrastructure fault and hides its
// details from the client.
func internalError(c echo.Context, log *zap.Logger, msg string, err error) error {
	log.Error(msg,
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.String("request_id", c.Response().Header().Get(middleware.HeaderRequestID)),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}
