package member

import "context"

type Repository interface {
	Create(ctx context.Context, m *Member) error
	// Update replaces the stored record; ErrMemberNotFound if the id is absent.
	Update(ctx context.Context, m *Member) error
	// Upsert writes the record under its own id whether or not it exists.
	Upsert(ctx context.Context, m *Member) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Member, error)
	List(ctx context.Context) ([]Member, error)
}
