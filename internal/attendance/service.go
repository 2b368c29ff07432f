package attendance

import (
	"context"
	"fmt"
	"time"

	"gymdesk/internal/activity"
	"gymdesk/internal/apperr"
	"gymdesk/internal/member"
	"gymdesk/internal/metrics"
	"gymdesk/internal/sideeffect"
)

// Members is the member storage the ledger reads and writes.
type Members interface {
	GetByID(ctx context.Context, id string) (*member.Member, error)
	Update(ctx context.Context, m *member.Member) error
}

// PaymentSync receives every successful check-in.
type PaymentSync interface {
	SyncStatusFromAttendance(ctx context.Context, memberID, date string) (apperr.Warnings, error)
}

type ActivityLog interface {
	Append(ctx context.Context, a activity.Activity) (*activity.Activity, error)
}

// Notifier tells a member their sessions are used up. Optional.
type Notifier interface {
	SendSessionsUsedUp(ctx context.Context, email, name, plan string) error
}

// CheckIn is the member after a successful check-in plus any side effects
// that failed.
type CheckIn struct {
	Member   *member.Member  `json:"member"`
	Warnings apperr.Warnings `json:"warnings,omitempty"`
}

type Service interface {
	MarkAttendance(ctx context.Context, memberID string) (*CheckIn, error)
}

type service struct {
	members    Members
	payments   PaymentSync
	activities ActivityLog
	notifier   Notifier
	locks      *member.Locks
	now        func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *service) { s.notifier = n }
}

// WithLocks makes check-ins wait for other writers of the same member.
func WithLocks(l *member.Locks) Option {
	return func(s *service) { s.locks = l }
}

func NewService(members Members, payments PaymentSync, activities ActivityLog, opts ...Option) Service {
	s := &service{
		members:    members,
		payments:   payments,
		activities: activities,
		locks:      member.NewLocks(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkAttendance credits one visit for today. At most one check-in counts
// per calendar day, and a session-based member needs a positive balance,
// which is decremented by one. The member write is the only step that can
// fail the call.
func (s *service) MarkAttendance(ctx context.Context, memberID string) (*CheckIn, error) {
	now := s.now()
	today := now.Format(member.DateLayout)

	m, details, err := s.credit(ctx, memberID, today)
	if err != nil {
		return nil, err
	}
	metrics.RecordCheckIn("ok")

	res := &CheckIn{Member: m}
	_, err = s.activities.Append(ctx, activity.Activity{
		MemberID:    m.ID,
		MemberName:  m.Name,
		MemberImage: m.ImageURL,
		Type:        activity.TypeCheckIn,
		Timestamp:   now,
		Details:     details,
	})
	sideeffect.Note(&res.Warnings, "activity", err)

	warnings, err := s.payments.SyncStatusFromAttendance(ctx, m.ID, today)
	res.Warnings.Merge(warnings)
	sideeffect.Note(&res.Warnings, "payment-sync", err)

	if s.notifier != nil && m.HasSubscription() && m.SessionsRemaining == 0 && m.Email != "" {
		err = s.notifier.SendSessionsUsedUp(ctx, m.Email, m.Name, string(m.SubscriptionType))
		sideeffect.Note(&res.Warnings, "depletion-notice", err)
	}

	return res, nil
}

// credit applies the same-day and balance guards and stores the check-in.
// The member stays locked from the read until the write lands.
func (s *service) credit(ctx context.Context, memberID, today string) (*member.Member, string, error) {
	unlock := s.locks.Lock(memberID)
	defer unlock()

	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		metrics.RecordCheckIn(resultFor(err))
		return nil, "", err
	}

	if m.AttendedOn(today) {
		metrics.RecordCheckIn("duplicate")
		return nil, "", apperr.ErrDuplicateCheckIn
	}

	details := "check-in"
	if m.HasSubscription() {
		if m.SessionsRemaining <= 0 {
			metrics.RecordCheckIn("no_sessions")
			return nil, "", apperr.ErrNoSessionsRemaining
		}
		m.SessionsRemaining--
		details = fmt.Sprintf("check-in - %d sessions remaining", m.SessionsRemaining)
	}
	m.LastAttendance = today

	if err := s.members.Update(ctx, m); err != nil {
		metrics.RecordCheckIn(resultFor(err))
		return nil, "", err
	}
	return m, details, nil
}

func resultFor(err error) string {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return "not_found"
	}
	return "error"
}
