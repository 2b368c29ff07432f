package activity

import "context"

type Repository interface {
	// Insert stores a new activity. Inserting an id that already exists is
	// a no-op, so entries are never overwritten.
	Insert(ctx context.Context, a *Activity) error
	Recent(ctx context.Context, limit int) ([]Activity, error)
	ListByMember(ctx context.Context, memberID string) ([]Activity, error)
}
