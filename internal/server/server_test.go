package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gymdesk/internal/activity"
	"gymdesk/internal/apperr"
	"gymdesk/internal/attendance"
	"gymdesk/internal/auth"
	"gymdesk/internal/config"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "server-test-secret"

type testServer struct {
	handler  http.Handler
	token    string
	members  *member.MemoryRepository
	payments *payment.MemoryRepository
	now      time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := auth.HashPassword("letmein")
	require.NoError(t, err)

	ts := &testServer{
		members:  member.NewMemoryRepository(),
		payments: payment.NewMemoryRepository(),
		now:      time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	cfg := &config.Config{
		Port:                 "0",
		JWTSecret:            testSecret,
		OperatorUsername:     "desk",
		OperatorPasswordHash: hash,
		RateLimitRPS:         1000,
		RateLimitBurst:       1000,
		StatsTTL:             time.Minute,
	}
	srv := New(cfg, Dependencies{
		Members:    ts.members,
		Payments:   ts.payments,
		Invoices:   payment.NewMemorySequence(),
		Activities: activity.NewMemoryRepository(),
		Now:        func() time.Time { return ts.now },
	})
	ts.handler = srv.Handler()

	w := ts.do(t, http.MethodPost, "/auth/login", auth.LoginRequest{Username: "desk", Password: "letmein"})
	require.Equal(t, http.StatusOK, w.Code)
	var tokens auth.Tokens
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	ts.token = tokens.AccessToken
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestFrontDeskDay(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/members", member.Member{
		Name:              "Karim",
		SubscriptionType:  member.Subscription13,
		SessionsRemaining: 1,
		PaymentStatus:     member.PaymentUnpaid,
		MembershipStatus:  member.StatusActive,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	karim := decode[member.Member](t, w)

	w = ts.do(t, http.MethodPost, "/members/"+karim.ID+"/check-in", nil)
	require.Equal(t, http.StatusOK, w.Code)
	checkIn := decode[attendance.CheckIn](t, w)
	assert.Equal(t, 0, checkIn.Member.SessionsRemaining)
	assert.Equal(t, "2024-03-10", checkIn.Member.LastAttendance)
	assert.Empty(t, checkIn.Warnings)

	w = ts.do(t, http.MethodPost, "/members/"+karim.ID+"/check-in", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	ts.now = ts.now.Add(2 * time.Hour)
	w = ts.do(t, http.MethodPost, "/payments", payment.Payment{
		MemberID:         karim.ID,
		Amount:           1500,
		SubscriptionType: payment.Plan13Sessions,
		PaymentMethod:    payment.MethodCash,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	recorded := decode[payment.Recorded](t, w)
	assert.Empty(t, recorded.Warnings)
	assert.Regexp(t, `^INV-\d{4}$`, recorded.Payment.InvoiceNumber)

	w = ts.do(t, http.MethodGet, "/members/"+karim.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	renewed := decode[member.Member](t, w)
	assert.Equal(t, 13, renewed.SessionsRemaining)
	assert.Equal(t, member.PaymentPaid, renewed.PaymentStatus)
	assert.Equal(t, member.StatusActive, renewed.MembershipStatus)

	w = ts.do(t, http.MethodGet, "/members/"+karim.ID+"/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	payments := decode[[]payment.Payment](t, w)
	require.Len(t, payments, 2)
	assert.Equal(t, recorded.Payment.ID, payments[0].ID)
	assert.Equal(t, payment.PlanSingleSession, payments[1].SubscriptionType)

	w = ts.do(t, http.MethodGet, "/members/"+karim.ID+"/activities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	types := map[activity.Type]int{}
	for _, a := range decode[[]activity.Activity](t, w) {
		types[a.Type]++
	}
	assert.Equal(t, 1, types[activity.TypeCheckIn])
	assert.Equal(t, 2, types[activity.TypePayment])
	assert.Equal(t, 1, types[activity.TypeMembershipRenewal])

	w = ts.do(t, http.MethodGet, "/payments/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[payment.Statistics](t, w)
	assert.Equal(t, 2, st.PaymentCount)
	assert.Equal(t, int64(1700), st.TotalRevenue)
}

func TestCheckInErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/members/ghost/check-in", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/members", member.Member{
		Name:              "Nadia",
		SubscriptionType:  member.Subscription15,
		SessionsRemaining: 0,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	nadia := decode[member.Member](t, w)

	w = ts.do(t, http.MethodPost, "/members/"+nadia.ID+"/check-in", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperr.ErrNoSessionsRemaining.Error(), decode[map[string]string](t, w)["error"])

	stored, err := ts.members.GetByID(context.Background(), nadia.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.LastAttendance)
}

func TestWalkInSessionSale(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/payments/session", payment.SessionPaymentRequest{Name: "Walk-in", Phone: "0555"})
	require.Equal(t, http.StatusCreated, w.Code)
	sale := decode[payment.SessionSale](t, w)
	assert.True(t, payment.IsSessionMemberID(sale.MemberID))
	assert.Equal(t, int64(200), sale.Payment.Amount)

	w = ts.do(t, http.MethodGet, "/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]member.Member](t, w))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	for _, path := range []string{"/members", "/payments", "/activities", "/backup", "/auth/session"} {
		w := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/auth/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"loggedIn":true,"operator":"desk","provider":"password"}`, w.Body.String())
}

func TestDocsRedirect(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/docs", nil)
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/swagger/index.html", w.Header().Get("Location"))
}
