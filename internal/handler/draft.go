package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/staywizard/internal/compose"
	"github.com/iliyamo/staywizard/internal/draft"
	"github.com/iliyamo/staywizard/internal/model"
)

const defaultMaxCoverBytes = 10 << 20

// GetDraft handles GET /v1/flows/:id/draft.
func (h *FlowHandler) GetDraft(c echo.Context) error {
	s, ok := h.open(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, echo.Map{"flow_id": s.ID, "draft": s.Drafts.Snapshot()})
}

// PatchDraft handles PATCH /v1/flows/:id/draft.  The body maps field keys
// ("details.category") to values.  Fields are applied in key order; keys
// that are unknown or carry a value of the wrong shape are reported with
// 422 while the valid ones are still saved.  The response carries the
// validation feedback of every field touched.
func (h *FlowHandler) PatchDraft(c echo.Context) error {
	s, ok := h.open(c)
	if !ok {
		return nil
	}
	var body map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx := c.Request().Context()
	var rejected []model.FieldError
	var applied []string
	for _, k := range keys {
		if err := s.Drafts.SetField(ctx, k, body[k]); err != nil {
			msg := "invalid value"
			if errors.Is(err, draft.ErrUnknownField) {
				msg = "unknown field"
			}
			rejected = append(rejected, model.FieldError{Field: k, Message: msg})
			continue
		}
		applied = append(applied, k)
	}

	d := s.Drafts.Snapshot()
	violations := []compose.Violation{}
	for _, k := range applied {
		violations = append(violations, compose.CheckField(s.Kind, k, d)...)
	}
	resp := echo.Map{"draft": d, "violations": violations}
	if len(rejected) > 0 {
		resp["error"] = "some fields were not saved"
		resp["field_errors"] = rejected
		return c.JSON(http.StatusUnprocessableEntity, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// UploadCover handles PUT /v1/flows/:id/media/cover with a multipart
// "file" part.  The content type is sniffed from the bytes, not taken from
// the client, and the file is kept in the draft so it survives an
// authentication redirect.
func (h *FlowHandler) UploadCover(c echo.Context) error {
	s, ok := h.open(c)
	if !ok {
		return nil
	}
	limit := h.MaxCoverBytes
	if limit <= 0 {
		limit = defaultMaxCoverBytes
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	if fh.Size > limit {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	if int64(len(data)) > limit {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}

	file := model.MediaFile{
		Name:        fh.Filename,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}
	if err := s.Drafts.SetField(c.Request().Context(), "media.coverPhoto", file); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	violations := compose.CheckField(s.Kind, "media.coverPhoto", s.Drafts.Snapshot())
	if violations == nil {
		violations = []compose.Violation{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"name":         file.Name,
		"content_type": file.ContentType,
		"size":         len(data),
		"violations":   violations,
	})
}
