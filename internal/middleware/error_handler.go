package middleware

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ErrorHandler renders every error as {code, message, details}. AppErrors keep
// their status; echo errors (unknown route, bad method, bind failures) are
// mapped onto the same codes.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := toAppError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"uri":    c.Request().RequestURI,
			}).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.HTTPStatus)
			return
		}
		_ = c.JSON(appErr.HTTPStatus, appErr.Response())
	}
}

func toAppError(err error) *apperrors.AppError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return &apperrors.AppError{Code: codeForStatus(he.Code), Message: msg, HTTPStatus: he.Code, Err: he.Internal}
	}
	return apperrors.AsAppError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return apperrors.CodeNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return apperrors.CodeForbidden
	case http.StatusConflict:
		return apperrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return apperrors.CodeValidation
	}
	if status < http.StatusInternalServerError {
		return apperrors.CodeInvalidInput
	}
	return apperrors.CodeInternal
}
