package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const memberColumns = `id, name, membership_status, membership_type, membership_start_date, membership_end_date,
	subscription_type, sessions_remaining, subscription_price, payment_status, last_attendance,
	note, phone_number, email, image_url`

const updateMemberQuery = `
	UPDATE members SET
		name = :name,
		membership_status = :membership_status,
		membership_type = :membership_type,
		membership_start_date = :membership_start_date,
		membership_end_date = :membership_end_date,
		subscription_type = :subscription_type,
		sessions_remaining = :sessions_remaining,
		subscription_price = :subscription_price,
		payment_status = :payment_status,
		last_attendance = :last_attendance,
		note = :note,
		phone_number = :phone_number,
		email = :email,
		image_url = :image_url,
		updated_at = NOW()
	WHERE id = :id
`

const upsertMemberQuery = `
	INSERT INTO members (`+memberColumns+`)
	VALUES (:id, :name, :membership_status, :membership_type, :membership_start_date, :membership_end_date,
		:subscription_type, :sessions_remaining, :subscription_price, :payment_status, :last_attendance,
		:note, :phone_number, :email, :image_url)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		membership_status = EXCLUDED.membership_status,
		membership_type = EXCLUDED.membership_type,
		membership_start_date = EXCLUDED.membership_start_date,
		membership_end_date = EXCLUDED.membership_end_date,
		subscription_type = EXCLUDED.subscription_type,
		sessions_remaining = EXCLUDED.sessions_remaining,
		subscription_price = EXCLUDED.subscription_price,
		payment_status = EXCLUDED.payment_status,
		last_attendance = EXCLUDED.last_attendance,
		note = EXCLUDED.note,
		phone_number = EXCLUDED.phone_number,
		email = EXCLUDED.email,
		image_url = EXCLUDED.image_url,
		updated_at = NOW()
`

type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *Member) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES (:id, :name, :membership_status, :membership_type, :membership_start_date, :membership_end_date,
			:subscription_type, :sessions_remaining, :subscription_price, :payment_status, :last_attendance,
			:note, :phone_number, :email, :image_url)
	`, m)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, m *Member) error {
	res, err := r.db.NamedExecContext(ctx, updateMemberQuery, m)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, m *Member) error {
	_, err := r.db.NamedExecContext(ctx, upsertMemberQuery, m)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Member, error) {
	m := &Member{}
	err := r.db.GetContext(ctx, m, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Member, error) {
	members := []Member{}
	err := r.db.SelectContext(ctx, &members, `SELECT `+memberColumns+` FROM members ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}
