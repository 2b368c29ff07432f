package payment

import "context"

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	// Update replaces the stored record; ErrPaymentNotFound if the id is absent.
	Update(ctx context.Context, p *Payment) error
	Upsert(ctx context.Context, p *Payment) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	// List and ListByMember return payments newest first.
	List(ctx context.Context) ([]Payment, error)
	ListByMember(ctx context.Context, memberID string) ([]Payment, error)
}

// InvoiceSequence hands out strictly increasing invoice numbers.
type InvoiceSequence interface {
	Next(ctx context.Context) (int64, error)
	// Advance makes sure later numbers are greater than n.
	Advance(ctx context.Context, n int64) error
}
