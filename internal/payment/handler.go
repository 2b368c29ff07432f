package payment

import (
	"context"
	"net/http"

	"gymdesk/internal/api"

	"github.com/gin-gonic/gin"
)

// StatisticsSource serves revenue statistics, possibly from a cache.
type StatisticsSource interface {
	Statistics(ctx context.Context) (*Statistics, error)
}

type Handler struct {
	service Service
	stats   StatisticsSource
}

// NewHandler builds the payment handlers. A nil stats falls back to the
// service itself.
func NewHandler(service Service, stats StatisticsSource) *Handler {
	if stats == nil {
		stats = service
	}
	return &Handler{service: service, stats: stats}
}

type SessionPaymentRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

type PriceResponse struct {
	SubscriptionType string `json:"subscriptionType"`
	Price            int64  `json:"price"`
}

// @Summary      Record a payment
// @Description  Stores the payment; for a registered member it also refills sessions to the full plan.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.Payment true "Payment; id and invoiceNumber are assigned by the server"
// @Success      201 {object} payment.Recorded
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /payments [post]
func (h *Handler) Create(c *gin.Context) {
	var req Payment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.service.RecordPayment(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err, "Failed to record payment")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// @Summary      Sell a single session to a walk-in
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.SessionPaymentRequest true "Walk-in details"
// @Success      201 {object} payment.SessionSale
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /payments/session [post]
func (h *Handler) CreateSession(c *gin.Context) {
	var req SessionPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	sale, err := h.service.RecordSessionPayment(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		api.RespondError(c, err, "Failed to record session payment")
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} payment.Payment
// @Failure      500 {object} api.ErrorResponse
// @Router       /payments [get]
func (h *Handler) List(c *gin.Context) {
	payments, err := h.service.ListPayments(c.Request.Context())
	if err != nil {
		api.RespondError(c, err, "Failed to load payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}

// @Summary      Payments of a member
// @Tags         payments,members
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Member ID"
// @Success      200 {array} payment.Payment
// @Failure      500 {object} api.ErrorResponse
// @Router       /members/{id}/payments [get]
func (h *Handler) ListByMember(c *gin.Context) {
	payments, err := h.service.ListByMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondError(c, err, "Failed to load payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}

// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Payment ID"
// @Success      200 {object} payment.Payment
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /payments/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	p, err := h.service.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondError(c, err, "Failed to load payment")
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Replace a payment
// @Description  Omitted date, invoiceNumber and status keep their stored values.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string          true "Payment ID"
// @Param        request body payment.Payment true "Payment"
// @Success      200 {object} payment.Payment
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /payments/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	var req Payment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	req.ID = c.Param("id")

	p, err := h.service.UpdatePayment(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err, "Failed to update payment")
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Delete a payment
// @Tags         payments
// @Security     BearerAuth
// @Param        id path string true "Payment ID"
// @Success      204
// @Failure      500 {object} api.ErrorResponse
// @Router       /payments/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.DeletePayment(c.Request.Context(), c.Param("id")); err != nil {
		api.RespondError(c, err, "Failed to delete payment")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Revenue statistics
// @Tags         payments,statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} payment.Statistics
// @Failure      500 {object} api.ErrorResponse
// @Router       /payments/statistics [get]
func (h *Handler) Statistics(c *gin.Context) {
	st, err := h.stats.Statistics(c.Request.Context())
	if err != nil {
		api.RespondError(c, err, "Failed to compute statistics")
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Price of a plan
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        type query string false "Plan label"
// @Success      200 {object} payment.PriceResponse
// @Router       /payments/price [get]
func (h *Handler) Price(c *gin.Context) {
	plan := c.Query("type")
	c.JSON(http.StatusOK, PriceResponse{SubscriptionType: plan, Price: h.service.PriceForSubscription(plan)})
}

// @Summary      Export payments as XLSX
// @Tags         payments
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200 {file} file
// @Failure      500 {object} api.ErrorResponse
// @Router       /payments/export.xlsx [get]
func (h *Handler) Export(c *gin.Context) {
	data, err := ExportXLSX(c.Request.Context(), h.service)
	if err != nil {
		api.RespondError(c, err, "Failed to export payments")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="payments.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
