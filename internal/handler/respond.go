package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/staywizard/internal/authgate"
	"github.com/iliyamo/staywizard/internal/compose"
	"github.com/iliyamo/staywizard/internal/model"
)

// outcomeBody is the JSON form of a gate outcome.
func outcomeBody(out authgate.Outcome) echo.Map {
	m := echo.Map{"outcome": out.Kind.String()}
	if out.ConfirmationID != "" {
		m["confirmation_id"] = out.ConfirmationID
	}
	if out.RedirectURL != "" {
		m["redirect_url"] = out.RedirectURL
	}
	return m
}

// errorBody is the JSON form of validation and remote submission errors.
func errorBody(err error) echo.Map {
	var verr *compose.ValidationError
	if errors.As(err, &verr) {
		return echo.Map{
			"error":      verr.Error(),
			"field":      verr.Field(),
			"violations": verr.Violations,
		}
	}
	var serr *model.SubmissionError
	if errors.As(err, &serr) {
		m := echo.Map{"error": serr.Message}
		if len(serr.FieldErrors) > 0 {
			m["field_errors"] = serr.FieldErrors
		}
		return m
	}
	return echo.Map{"error": err.Error()}
}

// statusFor maps gate and validation errors to HTTP statuses.
func statusFor(err error) int {
	var serr *model.SubmissionError
	switch {
	case errors.Is(err, compose.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, authgate.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, authgate.ErrAuthPending), errors.Is(err, authgate.ErrPendingNotSaved), errors.Is(err, authgate.ErrPendingUnresolved):
		return http.StatusServiceUnavailable
	case errors.As(err, &serr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
