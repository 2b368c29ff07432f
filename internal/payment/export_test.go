package payment

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportXLSX(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.Create(ctx, &Payment{
		ID: "p1", MemberID: "m1", Amount: 1000, Date: fixedNow.Add(-time.Hour),
		SubscriptionType: Plan13Sessions, PaymentMethod: MethodCash, Status: StatusCompleted, InvoiceNumber: "INV-0001",
	}))
	require.NoError(t, f.repo.Create(ctx, &Payment{
		ID: "p2", MemberID: "m2", Amount: 1800, Date: fixedNow.AddDate(0, 0, -2),
		SubscriptionType: Plan15Sessions, PaymentMethod: MethodCard, Status: StatusCompleted, InvoiceNumber: "INV-0002",
	}))

	data, err := ExportXLSX(ctx, f.svc)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Payments", "Summary"}, wb.GetSheetList())

	rows, err := wb.GetRows("Payments")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "INV-0001", rows[1][0])
	assert.Equal(t, "1000", rows[1][2])
	assert.Equal(t, "INV-0002", rows[2][0])

	total, err := wb.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2800", total)
}
