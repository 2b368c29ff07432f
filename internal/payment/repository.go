package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const paymentColumns = `id, member_id, amount, paid_at, subscription_type, payment_method, status,
	invoice_number, notes, last_attendance_date`

type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *Payment) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (:id, :member_id, :amount, :paid_at, :subscription_type, :payment_method, :status,
			:invoice_number, :notes, :last_attendance_date)
	`, p)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *Payment) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE payments SET
			member_id = :member_id,
			amount = :amount,
			paid_at = :paid_at,
			subscription_type = :subscription_type,
			payment_method = :payment_method,
			status = :status,
			invoice_number = :invoice_number,
			notes = :notes,
			last_attendance_date = :last_attendance_date
		WHERE id = :id
	`, p)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p *Payment) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (:id, :member_id, :amount, :paid_at, :subscription_type, :payment_method, :status,
			:invoice_number, :notes, :last_attendance_date)
		ON CONFLICT (id) DO UPDATE SET
			member_id = EXCLUDED.member_id,
			amount = EXCLUDED.amount,
			paid_at = EXCLUDED.paid_at,
			subscription_type = EXCLUDED.subscription_type,
			payment_method = EXCLUDED.payment_method,
			status = EXCLUDED.status,
			invoice_number = EXCLUDED.invoice_number,
			notes = EXCLUDED.notes,
			last_attendance_date = EXCLUDED.last_attendance_date
	`, p)
	if err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Payment, error) {
	p := &Payment{}
	err := r.db.GetContext(ctx, p, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Payment, error) {
	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments, `SELECT `+paymentColumns+` FROM payments ORDER BY paid_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (r *PostgresRepository) ListByMember(ctx context.Context, memberID string) ([]Payment, error) {
	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments,
		`SELECT `+paymentColumns+` FROM payments WHERE member_id = $1 ORDER BY paid_at DESC, id DESC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member payments: %w", err)
	}
	return payments, nil
}

// PostgresSequence draws invoice numbers from invoice_number_seq.
type PostgresSequence struct {
	db *sqlx.DB
}

func NewSequence(db *sqlx.DB) *PostgresSequence {
	return &PostgresSequence{db: db}
}

func (s *PostgresSequence) Next(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT nextval('invoice_number_seq')`); err != nil {
		return 0, fmt.Errorf("next invoice number: %w", err)
	}
	return n, nil
}

func (s *PostgresSequence) Advance(ctx context.Context, n int64) error {
	if n <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`SELECT setval('invoice_number_seq', GREATEST($1, (SELECT last_value FROM invoice_number_seq)))`, n)
	if err != nil {
		return fmt.Errorf("advance invoice sequence: %w", err)
	}
	return nil
}
