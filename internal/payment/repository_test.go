package payment

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"gymdesk/internal/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPaymentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	closer := func() { sqlxDB.Close() }
	return sqlxDB, mock, closer
}

var paymentRowColumns = []string{
	"id", "member_id", "amount", "paid_at", "subscription_type", "payment_method", "status",
	"invoice_number", "notes", "last_attendance_date",
}

func TestCreatePayment(t *testing.T) {
	db, mock, close := setupPaymentMock(t)
	defer close()
	repo := NewRepository(db)

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO payments`)).
		WithArgs("p1", "m1", int64(1000), now, "13 حصة", "cash", "completed", "INV-0001", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &Payment{
		ID:               "p1",
		MemberID:         "m1",
		Amount:           1000,
		Date:             now,
		SubscriptionType: Plan13Sessions,
		PaymentMethod:    MethodCash,
		Status:           StatusCompleted,
		InvoiceNumber:    "INV-0001",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePayment_NoRows(t *testing.T) {
	db, mock, close := setupPaymentMock(t)
	defer close()
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &Payment{ID: "ghost"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPaymentByID_NotFound(t *testing.T) {
	db, mock, close := setupPaymentMock(t)
	defer close()
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.True(t, errors.Is(err, ErrPaymentNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPaymentsByMember(t *testing.T) {
	db, mock, close := setupPaymentMock(t)
	defer close()
	repo := NewRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE member_id = $1 ORDER BY paid_at DESC, id DESC`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(paymentRowColumns).
			AddRow("p2", "m1", 1800, now, "15 حصة", "card", "completed", "INV-0002", "", "2024-03-10").
			AddRow("p1", "m1", 1000, now.Add(-time.Hour), "13 حصة", "cash", "completed", "INV-0001", "note", ""))

	payments, err := repo.ListByMember(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "p2", payments[0].ID)
	assert.Equal(t, MethodCard, payments[0].PaymentMethod)
	assert.Equal(t, "2024-03-10", payments[0].LastAttendanceDate)
	assert.Equal(t, "note", payments[1].Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePayment_Repository(t *testing.T) {
	db, mock, close := setupPaymentMock(t)
	defer close()
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM payments WHERE id = $1`)).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "p1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSequence(t *testing.T) {
	db, mock, close := setupPaymentMock(t)
	defer close()
	seq := NewSequence(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT nextval('invoice_number_seq')`)).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(7))

	n, err := seq.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	mock.ExpectExec(regexp.QuoteMeta(`SELECT setval('invoice_number_seq'`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, seq.Advance(context.Background(), 42))
	require.NoError(t, seq.Advance(context.Background(), 0))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorySequence(t *testing.T) {
	seq := NewMemorySequence()
	ctx := context.Background()

	a, _ := seq.Next(ctx)
	b, _ := seq.Next(ctx)
	assert.Equal(t, int64(1), a)
	assert.Equal(t, int64(2), b)

	require.NoError(t, seq.Advance(ctx, 10))
	require.NoError(t, seq.Advance(ctx, 3))
	c, _ := seq.Next(ctx)
	assert.Equal(t, int64(11), c)
}
