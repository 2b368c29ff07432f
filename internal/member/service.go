package member

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymdesk/internal/activity"
	"gymdesk/internal/apperr"
	"gymdesk/internal/metrics"
	"gymdesk/internal/sideeffect"
	"gymdesk/internal/validation"

	"github.com/google/uuid"
)

var ErrMemberNotFound = apperr.New(apperr.KindNotFound, "member not found")

// ActivityLog is the part of the activity log the registry writes to.
type ActivityLog interface {
	Append(ctx context.Context, a activity.Activity) (*activity.Activity, error)
}

type Service interface {
	Create(ctx context.Context, m Member) (*Member, error)
	Update(ctx context.Context, m Member) (*Member, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Member, error)
	List(ctx context.Context) ([]Member, error)
	SearchAndFilter(ctx context.Context, query string, status MembershipStatus) ([]Member, error)
	ResetSessions(ctx context.Context, id string) (*Member, apperr.Warnings, error)
	Import(ctx context.Context, members []Member) (int, error)
	Overview(ctx context.Context) (*Overview, error)
}

type service struct {
	repo       Repository
	activities ActivityLog
	locks      *Locks
	now        func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLocks shares per-member locks with other writers of the same records.
func WithLocks(l *Locks) Option {
	return func(s *service) { s.locks = l }
}

func NewService(repo Repository, activities ActivityLog, opts ...Option) Service {
	s := &service{repo: repo, activities: activities, locks: NewLocks(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, m Member) (*Member, error) {
	m.Name = strings.TrimSpace(m.Name)
	if err := validation.Struct(m); err != nil {
		return nil, err
	}

	m.ID = uuid.NewString()
	Normalize(&m)

	if err := s.repo.Create(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Update replaces the whole record. Callers merge over the previous state
// themselves.
func (s *service) Update(ctx context.Context, m Member) (*Member, error) {
	if m.ID == "" {
		return nil, apperr.Validation("member id is required")
	}
	m.Name = strings.TrimSpace(m.Name)
	if err := validation.Struct(m); err != nil {
		return nil, err
	}
	Normalize(&m)

	unlock := s.locks.Lock(m.ID)
	defer unlock()
	if err := s.repo.Update(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes the member only; payments and activities stay.
func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) Get(ctx context.Context, id string) (*Member, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]Member, error) {
	return s.repo.List(ctx)
}

// SearchAndFilter matches a case-insensitive name substring and, when status
// is set, an exact membership status.
func (s *service) SearchAndFilter(ctx context.Context, query string, status MembershipStatus) ([]Member, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := []Member{}
	for _, m := range all {
		if !strings.Contains(strings.ToLower(m.Name), q) {
			continue
		}
		if status != "" && m.MembershipStatus != status {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ResetSessions refills the session balance to the plan allotment and marks
// the member paid and active. A missing member yields (nil, nil, nil).
func (s *service) ResetSessions(ctx context.Context, id string) (*Member, apperr.Warnings, error) {
	unlock := s.locks.Lock(id)
	m, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		unlock()
		return nil, nil, nil
	}
	if err != nil {
		unlock()
		return nil, nil, err
	}

	sessions := SessionsFor(m.SubscriptionType)
	m.SessionsRemaining = sessions
	m.PaymentStatus = PaymentPaid
	m.MembershipStatus = StatusActive

	err = s.repo.Update(ctx, m)
	unlock()
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordSessionReset()

	var warnings apperr.Warnings
	_, err = s.activities.Append(ctx, activity.Activity{
		MemberID:    m.ID,
		MemberName:  m.Name,
		MemberImage: m.ImageURL,
		Type:        activity.TypeMembershipRenewal,
		Timestamp:   s.now(),
		Details:     fmt.Sprintf("reset to %d/%d sessions", sessions, sessions),
	})
	sideeffect.Note(&warnings, "activity", err)

	return m, warnings, nil
}

// Import writes members from a backup under their own ids, applying the
// import defaults.
func (s *service) Import(ctx context.Context, members []Member) (int, error) {
	for i := range members {
		m := members[i]
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return i, apperr.Validation("member %d: name is required", i)
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		Normalize(&m)
		if err := s.repo.Upsert(ctx, &m); err != nil {
			return i, err
		}
	}
	return len(members), nil
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := now.Format(DateLayout)
	weekStart := now.AddDate(0, 0, -6).Format(DateLayout)

	o := &Overview{TotalMembers: len(all)}
	for _, m := range all {
		if m.MembershipStatus == StatusActive {
			o.ActiveMembers++
		}
		if m.AttendedOn(today) {
			o.TodayAttendance++
		}
		if d := DateOf(m.LastAttendance); d != "" && d >= weekStart && d <= today {
			o.WeeklyAttendance++
		}
		if m.PaymentStatus == PaymentUnpaid || m.PaymentStatus == PaymentPartial {
			o.PendingPayments++
		}
		if m.HasSubscription() && m.SessionsRemaining == 0 {
			o.ExhaustedSessions++
		}
	}
	metrics.MembersTotal.Set(float64(o.TotalMembers))
	return o, nil
}
