package activity

import (
	"net/http"
	"strconv"

	"gymdesk/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Recent activities
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Maximum number of entries (default 10)"
// @Success      200 {array} activity.Activity
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /activities [get]
func (h *Handler) Recent(c *gin.Context) {
	limit := DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid limit"})
			return
		}
		limit = n
	}

	items, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		api.RespondError(c, err, "Failed to load activities")
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary      Activities of a member
// @Tags         activities,members
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      200 {array} activity.Activity
// @Failure      500 {object} api.ErrorResponse
// @Router       /members/{id}/activities [get]
func (h *Handler) ListByMember(c *gin.Context) {
	items, err := h.service.ListByMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondError(c, err, "Failed to load activities")
		return
	}
	c.JSON(http.StatusOK, items)
}
