package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/staywizard/internal/authgate"
	"github.com/iliyamo/staywizard/internal/flow"
	"github.com/iliyamo/staywizard/internal/middleware"
	"github.com/iliyamo/staywizard/internal/model"
	"github.com/iliyamo/staywizard/internal/repository"
)

// ReceiptLister lists confirmed submissions of a user.
// *repository.ReceiptRepo satisfies it.
type ReceiptLister interface {
	ListByUser(ctx context.Context, userID, kind string, limit int) ([]repository.Receipt, error)
}

// FlowHandler serves the submission flow API: creating flows, editing
// drafts, navigating the wizard, submitting and resuming.
type FlowHandler struct {
	Flows    *flow.Registry
	Receipts ReceiptLister // nil when MySQL is not configured
	// MaxCoverBytes caps the cover photo upload.  Zero means 10 MiB.
	MaxCoverBytes int64
	Log           *zap.Logger
}

// NewFlowHandler returns a FlowHandler.  receipts may be nil.
func NewFlowHandler(flows *flow.Registry, receipts ReceiptLister, log *zap.Logger) *FlowHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FlowHandler{Flows: flows, Receipts: receipts, Log: log}
}

// CreateFlow handles POST /v1/flows and starts a new listing or review flow.
func (h *FlowHandler) CreateFlow(c echo.Context) error {
	var body struct {
		Kind model.Kind `json:"kind"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	s, err := h.Flows.Create(c.Request().Context(), body.Kind)
	if errors.Is(err, flow.ErrInvalidKind) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be listing or review"})
	}
	if err != nil {
		h.Log.Error("create flow failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create flow"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"flow_id": s.ID,
		"kind":    s.Kind,
		"wizard":  s.Wizard(),
	})
}

// Mount handles POST /v1/flows/:id/mount.  The client calls it whenever the
// flow screen opens, including the return from the auth entry point.  It
// loads the draft, records the caller's authentication and resumes a
// pending submission when there is one.  A failed resumption is reported
// in the body; the mount itself still succeeds.
func (h *FlowHandler) Mount(c echo.Context) error {
	s, ok := h.open(c)
	if !ok {
		return nil
	}
	ctx := c.Request().Context()
	id := middleware.IdentityFrom(c)
	s.Gate.ObserveAuth(id)
	pending := s.Gate.HasPending(ctx)

	out, rerr := s.Gate.ResumeIfPending(ctx, id)
	resume := outcomeBody(out)
	if rerr != nil {
		for k, v := range errorBody(rerr) {
			resume[k] = v
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"flow_id":       s.ID,
		"kind":          s.Kind,
		"authenticated": id.State == authgate.Authenticated,
		"had_pending":   pending,
		"resume":        resume,
		"draft":         s.Drafts.Snapshot(),
		"wizard":        s.Wizard(),
	})
}

// Reset handles DELETE /v1/flows/:id.  It drops the draft and any pending
// submission; a submit still waiting for authentication will not redirect.
func (h *FlowHandler) Reset(c echo.Context) error {
	s, ok := h.open(c)
	if !ok {
		return nil
	}
	if err := s.Reset(c.Request().Context()); err != nil {
		h.Log.Warn("reset incomplete", zap.String("flow_id", s.ID), zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "pending submission could not be cleared"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Vocabularies handles GET /v1/vocabularies and lists every allowed value
// of the enumerated fields in catalog order.
func (h *FlowHandler) Vocabularies(c echo.Context) error {
	out := echo.Map{}
	for _, v := range model.Vocabularies() {
		out[v.Name] = v.Values()
	}
	return c.JSON(http.StatusOK, out)
}

// open resolves :id to a session.  When it fails the error response is
// already written and ok is false.
func (h *FlowHandler) open(c echo.Context) (s *flow.Session, ok bool) {
	s, err := h.Flows.Open(c.Request().Context(), c.Param("id"))
	if err == nil {
		return s, true
	}
	if errors.Is(err, flow.ErrUnknownFlow) {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "flow not found"})
		return nil, false
	}
	h.Log.Error("open flow failed", zap.String("flow_id", c.Param("id")), zap.Error(err))
	_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load flow"})
	return nil, false
}
