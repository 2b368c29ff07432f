package member

import (
	"net/http"

	"gymdesk/internal/api"
	"gymdesk/internal/apperr"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ResetResponse carries the refilled member and any side effects that did
// not go through.
type ResetResponse struct {
	Member   *Member         `json:"member"`
	Warnings apperr.Warnings `json:"warnings,omitempty"`
}

// @Summary      Register a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body member.Member true "Member payload; id is assigned by the server"
// @Success      201 {object} member.Member
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /members [post]
func (h *Handler) Create(c *gin.Context) {
	var req Member
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	m, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err, "Failed to create member")
		return
	}
	c.JSON(http.StatusCreated, m)
}

// @Summary      List members
// @Description  Optional case-insensitive name search and exact status filter.
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        q      query string false "Name substring"
// @Param        status query string false "Membership status" Enums(active, expired, pending)
// @Success      200 {array} member.Member
// @Failure      500 {object} api.ErrorResponse
// @Router       /members [get]
func (h *Handler) List(c *gin.Context) {
	q := c.Query("q")
	status := MembershipStatus(c.Query("status"))

	var (
		members []Member
		err     error
	)
	if q == "" && status == "" {
		members, err = h.service.List(c.Request.Context())
	} else {
		members, err = h.service.SearchAndFilter(c.Request.Context(), q, status)
	}
	if err != nil {
		api.RespondError(c, err, "Failed to load members")
		return
	}
	c.JSON(http.StatusOK, members)
}

// @Summary      Get a member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      200 {object} member.Member
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /members/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	m, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondError(c, err, "Failed to load member")
		return
	}
	c.JSON(http.StatusOK, m)
}

// @Summary      Replace a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string        true "Member ID"
// @Param        request body member.Member true "Full member record"
// @Success      200 {object} member.Member
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /members/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	var req Member
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	req.ID = c.Param("id")

	m, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err, "Failed to update member")
		return
	}
	c.JSON(http.StatusOK, m)
}

// @Summary      Delete a member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      204
// @Failure      500 {object} api.ErrorResponse
// @Router       /members/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		api.RespondError(c, err, "Failed to delete member")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Reset a member's sessions
// @Description  Refills sessions to the plan allotment and marks the member paid and active.
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      200 {object} member.ResetResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /members/{id}/reset-sessions [post]
func (h *Handler) ResetSessions(c *gin.Context) {
	m, warnings, err := h.service.ResetSessions(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondError(c, err, "Failed to reset sessions")
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: ErrMemberNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, ResetResponse{Member: m, Warnings: warnings})
}

// @Summary      Member dashboard counters
// @Tags         members,statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} member.Overview
// @Failure      500 {object} api.ErrorResponse
// @Router       /members/overview [get]
func (h *Handler) Overview(c *gin.Context) {
	o, err := h.service.Overview(c.Request.Context())
	if err != nil {
		api.RespondError(c, err, "Failed to load overview")
		return
	}
	c.JSON(http.StatusOK, o)
}
