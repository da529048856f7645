package handler

import (
	"bytes"
	"context"
	"fmt"

	"uti-assess/internal/domain"
	"uti-assess/internal/dto"
	"uti-assess/internal/export"
	"uti-assess/internal/middleware"
	"uti-assess/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	sourceAccount = "account"
	sourceLocal   = "local"
	sourceAll     = "all"
)

// HistoryHandler serves the history views. Signed-in callers see their account
// history; anonymous callers see the history kept for their session.
type HistoryHandler struct {
	history service.HistoryService
	local   service.LocalHistoryService
}

func NewHistoryHandler(history service.HistoryService, local service.LocalHistoryService) *HistoryHandler {
	return &HistoryHandler{history: history, local: local}
}

func (h *HistoryHandler) entriesFor(ctx context.Context, c *fiber.Ctx) (string, []domain.AssessmentEntry, error) {
	if userID := middleware.UserID(c); userID != "" {
		entries, err := h.history.ListForOwner(ctx, userID)
		return sourceAccount, entries, err
	}
	lh, err := h.local.Load(ctx, middleware.SessionID(c))
	if err != nil {
		return sourceLocal, nil, err
	}
	return sourceLocal, lh.Entries(), nil
}

// List godoc
// @Summary List history
// @Description Own assessments when signed in, otherwise the session's local history. Newest first.
// @Tags history
// @Produce json
// @Success 200 {object} dto.HistoryResponse
// @Router /history [get]
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	source, entries, err := h.entriesFor(c.UserContext(), c)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewHistoryResponse(source, entries))
}

// ListAll godoc
// @Summary List every assessment
// @Description Doctors and admins get every stored assessment. Other users get an empty list.
// @Tags history
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.HistoryResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /history/all [get]
func (h *HistoryHandler) ListAll(c *fiber.Ctx) error {
	entries, err := h.history.ListAll(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewHistoryResponse(sourceAll, entries))
}

// Stats godoc
// @Summary History statistics
// @Description Counts over the same entries as GET /history.
// @Tags history
// @Produce json
// @Success 200 {object} domain.HistoryStats
// @Router /history/stats [get]
func (h *HistoryHandler) Stats(c *fiber.Ctx) error {
	_, entries, err := h.entriesFor(c.UserContext(), c)
	if err != nil {
		return err
	}
	return c.JSON(h.history.Stats(entries))
}

// Export godoc
// @Summary Export history as CSV
// @Tags history
// @Produce text/csv
// @Success 200 {string} string "CSV file"
// @Router /history/export [get]
func (h *HistoryHandler) Export(c *fiber.Ctx) error {
	_, entries, err := h.entriesFor(c.UserContext(), c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, entries); err != nil {
		return domain.NewInternalError("failed to write export", err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	return c.Send(buf.Bytes())
}

// Delete godoc
// @Summary Delete one assessment
// @Description Signed-in users delete their own entries. Anonymous users remove an entry from local history.
// @Tags history
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /history/{id} [delete]
func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	ctx := c.UserContext()

	if userID := middleware.UserID(c); userID != "" {
		if err := h.history.Delete(ctx, id, userID); err != nil {
			return err
		}
		return c.JSON(dto.MessageResponse{Message: "Assessment deleted"})
	}

	removed := false
	_, err := h.local.Update(ctx, middleware.SessionID(c), func(lh *domain.LocalHistory) bool {
		removed = lh.Remove(id)
		return removed
	})
	if err != nil {
		return err
	}
	if !removed {
		return domain.NewNotFoundError(fmt.Sprintf("assessment %s not found", id))
	}
	return c.JSON(dto.MessageResponse{Message: "Assessment deleted"})
}

// Clear godoc
// @Summary Clear local history
// @Description Empties the history kept for this session. Account history is not affected.
// @Tags history
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Router /history [delete]
func (h *HistoryHandler) Clear(c *fiber.Ctx) error {
	if err := h.local.Clear(c.UserContext(), middleware.SessionID(c)); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Local history cleared"})
}
