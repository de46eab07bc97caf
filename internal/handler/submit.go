package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/staywizard/internal/authgate"
	"github.com/iliyamo/staywizard/internal/compose"
	"github.com/iliyamo/staywizard/internal/middleware"
	"github.com/iliyamo/staywizard/internal/wizard"
)

// Submit handles POST /v1/flows/:id/submit with body
// {"submitAnonymously": bool}.
//
// The draft is composed first; validation failures answer 422 and send
// nothing.  A flow whose wizard is not on the final step, or whose draft
// no longer meets an earlier step, answers 409 with the unmet
// requirements.  An authenticated caller gets 201 with the confirmation id.
// An unauthenticated caller's draft is parked and the answer is 202 with
// the auth entry URL in redirect_url and Location.  Remote rejections
// answer 502 and keep the draft.
func (h *FlowHandler) Submit(c echo.Context) error {
	s, ok := h.open(c)
	if !ok {
		return nil
	}
	var body struct {
		SubmitAnonymously bool `json:"submitAnonymously"`
	}
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
	}

	sub, err := compose.Compose(s.Kind, s.Drafts.Snapshot())
	if err != nil {
		return c.JSON(statusFor(err), errorBody(err))
	}
	sub.SubmitAnonymously = body.SubmitAnonymously

	if err := s.CheckReady(); err != nil {
		var nr *wizard.NotReadyError
		unmet := []string{}
		if errors.As(err, &nr) && len(nr.Unmet) > 0 {
			unmet = nr.Unmet
		}
		return c.JSON(http.StatusConflict, echo.Map{
			"error":  "flow is not ready to submit",
			"unmet":  unmet,
			"wizard": s.Wizard(),
		})
	}

	id := middleware.IdentityFrom(c)
	s.Gate.ObserveAuth(id)
	out, err := s.Gate.GuardSubmit(c.Request().Context(), id, sub)
	if err != nil {
		h.Log.Info("submit failed", zap.String("flow_id", s.ID), zap.Error(err))
		return c.JSON(statusFor(err), errorBody(err))
	}
	switch out.Kind {
	case authgate.OutcomeSubmitted:
		return c.JSON(http.StatusCreated, outcomeBody(out))
	case authgate.OutcomeRedirect:
		c.Response().Header().Set(echo.HeaderLocation, out.RedirectURL)
		return c.JSON(http.StatusAccepted, outcomeBody(out))
	case authgate.OutcomeCancelled:
		return c.JSON(http.StatusConflict, echo.Map{"error": "flow was reset", "outcome": out.Kind.String()})
	}
	return c.JSON(http.StatusOK, outcomeBody(out))
}
