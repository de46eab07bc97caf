package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/staywizard/internal/model"
)

// MySubmissions handles GET /v1/my-submissions?kind=&limit= and lists the
// caller's confirmed submissions, newest first.  It requires JWTAuth.
func (h *FlowHandler) MySubmissions(c echo.Context) error {
	if h.Receipts == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "receipts are not available"})
	}
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	kind := c.QueryParam("kind")
	if kind != "" && !model.Kind(kind).Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be listing or review"})
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	items, err := h.Receipts.ListByUser(c.Request().Context(), userID, kind, limit)
	if err != nil {
		h.Log.Error("list receipts failed", zap.String("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
