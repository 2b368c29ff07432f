package backup

import (
	"fmt"
	"net/http"

	"gymdesk/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Download a backup
// @Tags         backup
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} backup.Snapshot
// @Failure      500 {object} api.ErrorResponse
// @Router       /backup [get]
func (h *Handler) Export(c *gin.Context) {
	snap, err := h.service.Export(c.Request.Context())
	if err != nil {
		api.RespondError(c, err, "Failed to export backup")
		return
	}

	name := fmt.Sprintf("gymdesk-backup-%s.json", snap.Metadata.ExportDate.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.JSON(http.StatusOK, snap)
}

// @Summary      Restore a backup
// @Description  Upserts members, then payments, then activities under their own ids.
// @Tags         backup
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body backup.Snapshot true "Backup file"
// @Success      200 {object} backup.Summary
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /backup [post]
func (h *Handler) Restore(c *gin.Context) {
	var snap Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid backup file"})
		return
	}

	sum, err := h.service.Restore(c.Request.Context(), snap)
	if err != nil {
		api.RespondError(c, err, "Failed to restore backup")
		return
	}
	c.JSON(http.StatusOK, sum)
}
