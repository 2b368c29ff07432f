package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	email string
	err   error
}

func (v stubVerifier) Verify(context.Context, string) (string, error) {
	return v.email, v.err
}

func newTestService(t *testing.T, google GoogleVerifier, allowed ...string) *Service {
	t.Helper()
	hash, err := HashPassword("letmein")
	require.NoError(t, err)
	return NewService("desk", hash, testSecret, google, allowed)
}

func TestServiceLogin(t *testing.T) {
	svc := newTestService(t, nil)

	tokens, err := svc.Login("desk", "letmein")
	require.NoError(t, err)
	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "desk", claims.Operator)
	assert.Equal(t, ProviderPassword, claims.Provider)
	assert.Equal(t, int(AccessTokenTTL.Seconds()), tokens.ExpiresIn)

	_, err = svc.Login("desk", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("someone", "letmein")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestServiceLogin_NoPasswordConfigured(t *testing.T) {
	svc := NewService("desk", "", testSecret, nil, nil)

	_, err := svc.Login("desk", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestServiceLoginWithGoogle(t *testing.T) {
	t.Run("Disabled without verifier", func(t *testing.T) {
		_, err := newTestService(t, nil).LoginWithGoogle(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrGoogleDisabled)
	})

	t.Run("Allowed account", func(t *testing.T) {
		svc := newTestService(t, stubVerifier{email: "Owner@Gym.Example"}, " owner@gym.example ")

		tokens, err := svc.LoginWithGoogle(context.Background(), "tok")
		require.NoError(t, err)
		claims, err := ValidateToken(tokens.AccessToken, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "owner@gym.example", claims.Operator)
		assert.Equal(t, ProviderGoogle, claims.Provider)
	})

	t.Run("Account not on allow list", func(t *testing.T) {
		svc := newTestService(t, stubVerifier{email: "stranger@example.com"}, "owner@gym.example")

		_, err := svc.LoginWithGoogle(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Verifier failure", func(t *testing.T) {
		svc := newTestService(t, stubVerifier{err: errors.New("bad signature")})

		_, err := svc.LoginWithGoogle(context.Background(), "tok")
		assert.EqualError(t, err, "bad signature")
	})
}

func TestNewGoogleVerifier_EmptyClientID(t *testing.T) {
	assert.Nil(t, NewGoogleVerifier(""))
	assert.NotNil(t, NewGoogleVerifier("client.apps.googleusercontent.com"))
}

func authRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/google", h.Google)
	r.POST("/auth/refresh", h.Refresh)
	r.GET("/auth/session", AuthMiddleware(testSecret), h.Session)
	return r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerLoginAndSession(t *testing.T) {
	r := authRouter(newTestService(t, nil))

	w := postJSON(r, "/auth/login", LoginRequest{Username: "desk", Password: "letmein"})
	require.Equal(t, http.StatusOK, w.Code)
	var tokens Tokens
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var session SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.True(t, session.LoggedIn)
	assert.Equal(t, "desk", session.Operator)
	assert.Equal(t, ProviderPassword, session.Provider)

	w = postJSON(r, "/auth/refresh", RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	var refreshed Tokens
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	assert.Equal(t, tokens.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestHandlerErrors(t *testing.T) {
	r := authRouter(newTestService(t, nil))

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"Missing password", "/auth/login", map[string]string{"username": "desk"}, http.StatusBadRequest},
		{"Wrong password", "/auth/login", LoginRequest{Username: "desk", Password: "nope"}, http.StatusUnauthorized},
		{"Google disabled", "/auth/google", GoogleLoginRequest{IDToken: "tok"}, http.StatusNotImplemented},
		{"Garbage refresh", "/auth/refresh", RefreshRequest{RefreshToken: "abc"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandlerSession_NoOperator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/auth/session", NewHandler(newTestService(t, nil)).Session)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/session", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"loggedIn":false}`, w.Body.String())
}
