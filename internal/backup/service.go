package backup

import (
	"context"
	"fmt"
	"time"

	"gymdesk/internal/activity"
	"gymdesk/internal/apperr"
	"gymdesk/internal/logger"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"
)

const FormatVersion = "4.0"

type Metadata struct {
	ExportDate      time.Time `json:"exportDate"`
	Version         string    `json:"version"`
	TotalPayments   int       `json:"totalPayments"`
	TotalMembers    int       `json:"totalMembers"`
	TotalActivities int       `json:"totalActivities"`
	TotalRevenue    int64     `json:"totalRevenue"`
}

type Data struct {
	Payments   []payment.Payment   `json:"payments"`
	Members    []member.Member     `json:"members"`
	Activities []activity.Activity `json:"activities"`
}

// Snapshot is the full export of the three ledgers. Older files without the
// data envelope carry the collections at the top level.
type Snapshot struct {
	Metadata   *Metadata           `json:"metadata,omitempty"`
	Data       *Data               `json:"data,omitempty"`
	Payments   []payment.Payment   `json:"payments,omitempty"`
	Members    []member.Member     `json:"members,omitempty"`
	Activities []activity.Activity `json:"activities,omitempty"`
}

func (s Snapshot) collections() Data {
	if s.Data != nil {
		return *s.Data
	}
	return Data{Payments: s.Payments, Members: s.Members, Activities: s.Activities}
}

type Summary struct {
	Members    int `json:"members"`
	Payments   int `json:"payments"`
	Activities int `json:"activities"`
}

type Members interface {
	List(ctx context.Context) ([]member.Member, error)
	Import(ctx context.Context, members []member.Member) (int, error)
}

type Payments interface {
	ListPayments(ctx context.Context) ([]payment.Payment, error)
	Import(ctx context.Context, payments []payment.Payment) (int, error)
}

type Activities interface {
	Recent(ctx context.Context, limit int) ([]activity.Activity, error)
	Import(ctx context.Context, activities []activity.Activity) (int, error)
}

type Service struct {
	members    Members
	payments   Payments
	activities Activities
	now        func() time.Time
}

func NewService(members Members, payments Payments, activities Activities) *Service {
	return &Service{members: members, payments: payments, activities: activities, now: time.Now}
}

// allActivities is large enough for Recent to return the whole log.
const allActivities = 1 << 30

func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	payments, err := s.payments.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	activities, err := s.activities.Recent(ctx, allActivities)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	var revenue int64
	for _, p := range payments {
		revenue += p.Amount
	}

	return &Snapshot{
		Metadata: &Metadata{
			ExportDate:      s.now(),
			Version:         FormatVersion,
			TotalPayments:   len(payments),
			TotalMembers:    len(members),
			TotalActivities: len(activities),
			TotalRevenue:    revenue,
		},
		Data: &Data{Payments: payments, Members: members, Activities: activities},
	}, nil
}

// Restore imports members first so that payments and activities refer to
// existing records. It stops at the first failing collection.
func (s *Service) Restore(ctx context.Context, snap Snapshot) (*Summary, error) {
	data := snap.collections()
	if len(data.Members) == 0 && len(data.Payments) == 0 && len(data.Activities) == 0 {
		return nil, apperr.Validation("backup contains no data to import")
	}

	var sum Summary
	var err error
	if sum.Members, err = s.members.Import(ctx, data.Members); err != nil {
		return &sum, fmt.Errorf("import members: %w", err)
	}
	if sum.Payments, err = s.payments.Import(ctx, data.Payments); err != nil {
		return &sum, fmt.Errorf("import payments: %w", err)
	}
	if sum.Activities, err = s.activities.Import(ctx, data.Activities); err != nil {
		return &sum, fmt.Errorf("import activities: %w", err)
	}

	logger.Info("backup restored", "members", sum.Members, "payments", sum.Payments, "activities", sum.Activities)
	return &sum, nil
}
