package attendance

import (
	"net/http"

	"gymdesk/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Check a member in
// @Description  Credits today's visit and uses one session of a session-based plan.
// @Tags         members,attendance
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      200 {object} attendance.CheckIn
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse "Already checked in today, or no sessions left"
// @Failure      500 {object} api.ErrorResponse
// @Router       /members/{id}/check-in [post]
func (h *Handler) CheckIn(c *gin.Context) {
	res, err := h.service.MarkAttendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondError(c, err, "Failed to mark attendance")
		return
	}
	c.JSON(http.StatusOK, res)
}
