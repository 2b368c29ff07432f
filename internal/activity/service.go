package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const DefaultRecentLimit = 10

// Service is the append-only activity log shared by the member registry and
// both ledgers.
type Service interface {
	Append(ctx context.Context, a Activity) (*Activity, error)
	Recent(ctx context.Context, limit int) ([]Activity, error)
	ListByMember(ctx context.Context, memberID string) ([]Activity, error)
	Import(ctx context.Context, activities []Activity) (int, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) Service {
	s := &service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append assigns an id and timestamp when they are missing and stores the
// entry.
func (s *service) Append(ctx context.Context, a Activity) (*Activity, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	a.Type = NormalizeType(a.Type)

	if err := s.repo.Insert(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.repo.Recent(ctx, limit)
}

func (s *service) ListByMember(ctx context.Context, memberID string) ([]Activity, error) {
	return s.repo.ListByMember(ctx, memberID)
}

// Import stores activities from a backup, keeping their ids. Entries whose
// id is already present are left untouched.
func (s *service) Import(ctx context.Context, activities []Activity) (int, error) {
	for i, a := range activities {
		if _, err := s.Append(ctx, a); err != nil {
			return i, err
		}
	}
	return len(activities), nil
}
