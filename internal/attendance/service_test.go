package attendance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gymdesk/internal/activity"
	"gymdesk/internal/apperr"
	"gymdesk/internal/member"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentSync struct {
	mock.Mock
}

func (m *MockPaymentSync) SyncStatusFromAttendance(ctx context.Context, memberID, date string) (apperr.Warnings, error) {
	args := m.Called(ctx, memberID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(apperr.Warnings), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendSessionsUsedUp(ctx context.Context, email, name, plan string) error {
	return m.Called(ctx, email, name, plan).Error(0)
}

type failingMembers struct {
	*member.MemoryRepository
}

func (failingMembers) Update(context.Context, *member.Member) error {
	return errors.New("disk full")
}

// clock is a movable fixed clock.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type fixture struct {
	svc     Service
	members *member.MemoryRepository
	sync    *MockPaymentSync
	log     activity.Service
	clock   *clock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		members: member.NewMemoryRepository(),
		sync:    new(MockPaymentSync),
		log:     activity.NewService(activity.NewMemoryRepository()),
		clock:   &clock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	opts = append([]Option{WithClock(f.clock.Now)}, opts...)
	f.svc = NewService(f.members, f.sync, f.log, opts...)
	f.sync.On("SyncStatusFromAttendance", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	return f
}

func (f *fixture) addMember(t *testing.T, m member.Member) {
	t.Helper()
	require.NoError(t, f.members.Create(context.Background(), &m))
}

func TestMarkAttendance_DecrementsOnePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, member.Member{ID: "m1", Name: "Ahmed", SubscriptionType: member.Subscription13, SessionsRemaining: 5})

	for day := 0; day < 5; day++ {
		res, err := f.svc.MarkAttendance(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, 4-day, res.Member.SessionsRemaining)
		f.clock.t = f.clock.t.AddDate(0, 0, 1)
	}

	_, err := f.svc.MarkAttendance(ctx, "m1")
	assert.True(t, errors.Is(err, apperr.ErrNoSessionsRemaining))

	m, err := f.members.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 0, m.SessionsRemaining)
}

func TestMarkAttendance_SameDayIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, member.Member{ID: "m1", Name: "Ahmed", SubscriptionType: member.Subscription15, SessionsRemaining: 10})

	_, err := f.svc.MarkAttendance(ctx, "m1")
	require.NoError(t, err)

	f.clock.t = f.clock.t.Add(8 * time.Hour)
	_, err = f.svc.MarkAttendance(ctx, "m1")
	assert.True(t, errors.Is(err, apperr.ErrDuplicateCheckIn))

	m, err := f.members.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 9, m.SessionsRemaining)
	assert.Equal(t, "2024-03-10", m.LastAttendance)
}

func TestMarkAttendance_GuardIgnoresTimeOfStoredDate(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, member.Member{ID: "m1", Name: "Ahmed", LastAttendance: "2024-03-10T06:15:00.000Z"})

	_, err := f.svc.MarkAttendance(context.Background(), "m1")
	assert.True(t, errors.Is(err, apperr.ErrDuplicateCheckIn))
}

func TestMarkAttendance_NoSessionsRemaining(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, member.Member{ID: "m1", Name: "Ahmed", SubscriptionType: member.Subscription30, SessionsRemaining: 0})

	_, err := f.svc.MarkAttendance(context.Background(), "m1")
	assert.True(t, errors.Is(err, apperr.ErrNoSessionsRemaining))
	f.sync.AssertNotCalled(t, "SyncStatusFromAttendance", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkAttendance_WithoutSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, member.Member{ID: "m1", Name: "Ahmed"})

	res, err := f.svc.MarkAttendance(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Member.SessionsRemaining)
	assert.Equal(t, "2024-03-10", res.Member.LastAttendance)

	entries, err := f.log.ListByMember(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "check-in", entries[0].Details)
}

func TestMarkAttendance_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.MarkAttendance(context.Background(), "ghost")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestMarkAttendance_LogsAndSyncs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addMember(t, member.Member{ID: "m1", Name: "Ahmed", ImageURL: "a.png", SubscriptionType: member.Subscription13, SessionsRemaining: 3})

	res, err := f.svc.MarkAttendance(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, res.Warnings.Empty())

	entries, err := f.log.ListByMember(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, activity.TypeCheckIn, entries[0].Type)
	assert.Equal(t, "a.png", entries[0].MemberImage)
	assert.Equal(t, "check-in - 2 sessions remaining", entries[0].Details)

	f.sync.AssertCalled(t, "SyncStatusFromAttendance", ctx, "m1", "2024-03-10")
}

func TestMarkAttendance_SyncFailureIsWarning(t *testing.T) {
	members := member.NewMemoryRepository()
	payments := new(MockPaymentSync)
	svc := NewService(members, payments, activity.NewService(activity.NewMemoryRepository()))
	ctx := context.Background()

	require.NoError(t, members.Create(ctx, &member.Member{ID: "m1", Name: "Ahmed", SubscriptionType: member.Subscription13, SessionsRemaining: 2}))
	payments.On("SyncStatusFromAttendance", ctx, "m1", mock.Anything).
		Return(apperr.Warnings{{Op: "activity", Error: "log down"}}, errors.New("payments unavailable"))

	res, err := svc.MarkAttendance(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "activity", res.Warnings[0].Op)
	assert.Equal(t, "payment-sync", res.Warnings[1].Op)

	m, err := members.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, m.SessionsRemaining)
}

func TestMarkAttendance_PrimaryWriteFailure(t *testing.T) {
	members := failingMembers{member.NewMemoryRepository()}
	payments := new(MockPaymentSync)
	svc := NewService(members, payments, activity.NewService(activity.NewMemoryRepository()))
	ctx := context.Background()

	require.NoError(t, members.Create(ctx, &member.Member{ID: "m1", Name: "Ahmed"}))

	_, err := svc.MarkAttendance(ctx, "m1")
	assert.EqualError(t, err, "disk full")
	payments.AssertNotCalled(t, "SyncStatusFromAttendance", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkAttendance_DepletionNotice(t *testing.T) {
	notifier := new(MockNotifier)
	f := newFixture(t, WithNotifier(notifier))
	ctx := context.Background()
	f.addMember(t, member.Member{ID: "m1", Name: "Ahmed", Email: "ahmed@example.com", SubscriptionType: member.Subscription13, SessionsRemaining: 2})

	notifier.On("SendSessionsUsedUp", ctx, "ahmed@example.com", "Ahmed", "13 حصة").Return(errors.New("queue down")).Once()

	res, err := f.svc.MarkAttendance(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, res.Warnings.Empty())

	f.clock.t = f.clock.t.AddDate(0, 0, 1)
	res, err = f.svc.MarkAttendance(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Member.SessionsRemaining)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "depletion-notice", res.Warnings[0].Op)

	notifier.AssertExpectations(t)
}

// slowMembers stretches every member read and records how many callers
// were reading at once.
type slowMembers struct {
	*member.MemoryRepository
	inside  atomic.Int32
	maxSeen atomic.Int32
}

func (r *slowMembers) GetByID(ctx context.Context, id string) (*member.Member, error) {
	m, err := r.MemoryRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n := r.inside.Add(1)
	defer r.inside.Add(-1)
	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return m, nil
}

func TestMarkAttendance_ConcurrentSameDay(t *testing.T) {
	f := newFixture(t)
	members := &slowMembers{MemoryRepository: f.members}
	svc := NewService(members, f.sync, f.log, WithClock(f.clock.Now))
	f.addMember(t, member.Member{ID: "m1", Name: "Ahmed", SubscriptionType: member.Subscription13, SessionsRemaining: 5})

	const callers = 8
	var (
		wg         sync.WaitGroup
		ok         atomic.Int32
		duplicates atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.MarkAttendance(context.Background(), "m1")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperr.ErrDuplicateCheckIn):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(callers-1), duplicates.Load())
	assert.Equal(t, int32(1), members.maxSeen.Load())

	stored, err := f.members.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.SessionsRemaining)
	assert.Equal(t, "2024-03-10", stored.LastAttendance)
}

func TestMarkAttendance_SerializedWithSessionReset(t *testing.T) {
	f := newFixture(t)
	members := &slowMembers{MemoryRepository: f.members}
	locks := member.NewLocks()
	checkIns := NewService(members, f.sync, f.log, WithClock(f.clock.Now), WithLocks(locks))
	registry := member.NewService(members, f.log, member.WithClock(f.clock.Now), member.WithLocks(locks))
	f.addMember(t, member.Member{ID: "m1", Name: "Ahmed", SubscriptionType: member.Subscription13, SessionsRemaining: 3})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := checkIns.MarkAttendance(context.Background(), "m1")
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, _, err := registry.ResetSessions(context.Background(), "m1")
		assert.NoError(t, err)
	}()
	wg.Wait()

	assert.Equal(t, int32(1), members.maxSeen.Load())

	stored, err := f.members.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", stored.LastAttendance)
	assert.Contains(t, []int{12, 13}, stored.SessionsRemaining)
	assert.Equal(t, member.PaymentPaid, stored.PaymentStatus)
}
