package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/staywizard/internal/flow"
	"github.com/iliyamo/staywizard/internal/wizard"
)

// GetWizard handles GET /v1/flows/:id/wizard.
func (h *FlowHandler) GetWizard(c echo.Context) error {
	s, ok := h.open(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, s.Wizard())
}

// Advance handles POST /v1/flows/:id/wizard/advance.  An incomplete
// position answers 422 with the unmet requirements and leaves the
// position unchanged.
func (h *FlowHandler) Advance(c echo.Context) error {
	s, ok := h.open(c)
	if !ok {
		return nil
	}
	view, err := s.Advance()
	return wizardResponse(c, view, err)
}

// Retreat handles POST /v1/flows/:id/wizard/retreat.
func (h *FlowHandler) Retreat(c echo.Context) error {
	s, ok := h.open(c)
	if !ok {
		return nil
	}
	view, err := s.Retreat()
	return wizardResponse(c, view, err)
}

// Jump handles POST /v1/flows/:id/wizard/jump with body {"step": n}.
func (h *FlowHandler) Jump(c echo.Context) error {
	s, ok := h.open(c)
	if !ok {
		return nil
	}
	var body struct {
		Step *int `json:"step"`
	}
	if err := c.Bind(&body); err != nil || body.Step == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "step is required"})
	}
	view, err := s.JumpTo(*body.Step)
	return wizardResponse(c, view, err)
}

func wizardResponse(c echo.Context, view flow.WizardView, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, view)
	}
	var inc *wizard.IncompleteError
	switch {
	case errors.As(err, &inc):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "step incomplete", "unmet": inc.Unmet, "wizard": view})
	case errors.Is(err, wizard.ErrOutOfRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "wizard": view})
	default:
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "wizard": view})
	}
}
