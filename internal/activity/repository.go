package activity

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, a *Activity) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO activities (id, member_id, member_name, member_image, activity_type, occurred_at, details)
		VALUES (:id, :member_id, :member_name, :member_image, :activity_type, :occurred_at, :details)
		ON CONFLICT (id) DO NOTHING
	`, a)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]Activity, error) {
	activities := []Activity{}
	err := r.db.SelectContext(ctx, &activities, `
		SELECT id, member_id, member_name, member_image, activity_type, occurred_at, details
		FROM activities
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent activities: %w", err)
	}
	return activities, nil
}

func (r *PostgresRepository) ListByMember(ctx context.Context, memberID string) ([]Activity, error) {
	activities := []Activity{}
	err := r.db.SelectContext(ctx, &activities, `
		SELECT id, member_id, member_name, member_image, activity_type, occurred_at, details
		FROM activities
		WHERE member_id = $1
		ORDER BY occurred_at DESC, id DESC
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member activities: %w", err)
	}
	return activities, nil
}
