package email

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

func newTestService(rdb *redis.Client) *Service {
	s := New(rdb, "desk@gymdesk.local", "GymDesk", "smtp.test.com", "587", "test@example.com", "password")
	s.retryDelay = 0
	return s
}

func TestSend(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*`).SetVal(1)

	svc := newTestService(db)

	err := svc.Send(ctx, "test", "user@example.com", "User", "Hello", "Test body")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*`).SetErr(assert.AnError)

	svc := newTestService(db)

	err := svc.Send(ctx, "test", "user@example.com", "User", "Hello", "Test body")
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendPaymentReceipt(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*"kind":"receipt".*INV-0007.*`).SetVal(1)

	svc := newTestService(db)

	err := svc.SendPaymentReceipt(ctx, "ahmed@example.com", "Ahmed", "INV-0007", "13 حصة", 1000, time.Now())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendSessionsUsedUp(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*"kind":"sessions_used_up".*`).SetVal(1)

	svc := newTestService(db)

	err := svc.SendSessionsUsedUp(ctx, "ahmed@example.com", "Ahmed", "15 حصة")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectLLen("emails").SetVal(5)

	svc := newTestService(db)

	length := svc.QueueLength(ctx)
	assert.Equal(t, int64(5), length)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func queuedJob(t *testing.T, tries int) string {
	t.Helper()
	data, err := json.Marshal(EmailJob{Kind: "receipt", To: "ahmed@example.com", Subject: "s", Body: "b", Tries: tries})
	require.NoError(t, err)
	return string(data)
}

func TestProcessNext_Delivers(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", queuedJob(t, 0)})
	mock.ExpectLLen("emails").SetVal(3)

	svc := newTestService(db)
	var delivered []EmailJob
	svc.deliver = func(j EmailJob) error {
		delivered = append(delivered, j)
		return nil
	}

	svc.processNext(ctx)

	require.Len(t, delivered, 1)
	assert.Equal(t, 1, delivered[0].Tries)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.EmailQueueLength))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_RequeuesOnFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", queuedJob(t, 0)})
	mock.Regexp().ExpectLPush("emails", `.*"tries":1.*`).SetVal(1)
	mock.ExpectLLen("emails").SetVal(1)

	svc := newTestService(db)
	svc.deliver = func(EmailJob) error { return errors.New("smtp down") }

	svc.processNext(ctx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_MovesToFailedAfterLastAttempt(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", queuedJob(t, 2)})
	mock.Regexp().ExpectLPush("emails:failed", `.*smtp down.*`).SetVal(1)
	mock.ExpectLLen("emails").SetVal(0)

	svc := newTestService(db)
	svc.deliver = func(EmailJob) error { return errors.New("smtp down") }

	svc.processNext(ctx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_IdlePublishesQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	metrics.EmailQueueLength.Set(7)
	mock.ExpectBRPop(2*time.Second, "emails").RedisNil()
	mock.ExpectLLen("emails").SetVal(0)

	svc := newTestService(db)
	svc.deliver = func(EmailJob) error {
		t.Fatal("nothing should be delivered from an empty queue")
		return nil
	}

	svc.processNext(ctx)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.EmailQueueLength))
	assert.NoError(t, mock.ExpectationsWereMet())
}
