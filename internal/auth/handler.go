package auth

import (
	"errors"
	"net/http"

	"gymdesk/internal/api"
	"gymdesk/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type SessionResponse struct {
	LoggedIn bool   `json:"loggedIn"`
	Operator string `json:"operator,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// @Summary      Operator login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body auth.LoginRequest true "Credentials"
// @Success      200 {object} auth.Tokens
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	tokens, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// @Summary      Google sign-in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body auth.GoogleLoginRequest true "Google ID token"
// @Success      200 {object} auth.Tokens
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      501 {object} api.ErrorResponse
// @Router       /auth/google [post]
func (h *Handler) Google(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	tokens, err := h.service.LoginWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// @Summary      Refresh the access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body auth.RefreshRequest true "Refresh token"
// @Success      200 {object} auth.Tokens
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	tokens, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} auth.SessionResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /auth/session [get]
func (h *Handler) Session(c *gin.Context) {
	operator, ok := GetOperator(c)
	if !ok {
		c.JSON(http.StatusOK, SessionResponse{LoggedIn: false})
		return
	}
	provider, _ := c.Get(ctxProvider)
	p, _ := provider.(string)
	c.JSON(http.StatusOK, SessionResponse{LoggedIn: true, Operator: operator, Provider: p})
}

func (h *Handler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrGoogleDisabled):
		c.JSON(http.StatusNotImplemented, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrEmptyJWTSecret):
		logger.Error("token signing failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to sign in"})
	case errors.Is(err, ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Token expired"})
	default:
		logger.Warn("sign-in rejected", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: ErrInvalidCredentials.Error()})
	}
}
