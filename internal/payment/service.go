package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gymdesk/internal/activity"
	"gymdesk/internal/apperr"
	"gymdesk/internal/metrics"
	"gymdesk/internal/sideeffect"
	"gymdesk/internal/validation"

	"github.com/google/uuid"
)

var ErrPaymentNotFound = apperr.New(apperr.KindNotFound, "payment not found")

const recentPaymentsLimit = 5

// MemberDirectory is the slice of the member registry the ledger calls into.
type MemberDirectory interface {
	// FindMember returns nil, nil when no member has the id.
	FindMember(ctx context.Context, id string) (*Payer, error)
	ResetSessions(ctx context.Context, id string) (apperr.Warnings, error)
}

type ActivityLog interface {
	Append(ctx context.Context, a activity.Activity) (*activity.Activity, error)
}

// Notifier delivers payment receipts. Optional.
type Notifier interface {
	SendPaymentReceipt(ctx context.Context, email, name, invoice, plan string, amount int64, paidAt time.Time) error
}

type Service interface {
	RecordPayment(ctx context.Context, p Payment) (*Recorded, error)
	RecordSessionPayment(ctx context.Context, displayName, phone string) (*SessionSale, error)
	UpdatePayment(ctx context.Context, p Payment) (*Payment, error)
	DeletePayment(ctx context.Context, id string) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	ListPayments(ctx context.Context) ([]Payment, error)
	ListByMember(ctx context.Context, memberID string) ([]Payment, error)
	PriceForSubscription(plan string) int64
	Statistics(ctx context.Context) (*Statistics, error)
	SyncStatusFromAttendance(ctx context.Context, memberID, date string) (apperr.Warnings, error)
	Import(ctx context.Context, payments []Payment) (int, error)
}

type service struct {
	repo       Repository
	invoices   InvoiceSequence
	members    MemberDirectory
	activities ActivityLog
	notifier   Notifier
	now        func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(s *service) { s.notifier = n }
}

func NewService(repo Repository, invoices InvoiceSequence, members MemberDirectory, activities ActivityLog, opts ...Option) Service {
	s := &service{
		repo:       repo,
		invoices:   invoices,
		members:    members,
		activities: activities,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FormatInvoice renders a sequence number as a display invoice number.
func FormatInvoice(n int64) string {
	return fmt.Sprintf("INV-%04d", n)
}

// ParseInvoice extracts the sequence number from an INV-#### invoice.
func ParseInvoice(invoice string) (int64, bool) {
	rest, ok := strings.CutPrefix(invoice, "INV-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// RecordPayment stores a payment and, when it belongs to a registered
// member, logs it and refills the member's sessions to the full plan. Only
// the payment write can fail the call.
func (s *service) RecordPayment(ctx context.Context, p Payment) (*Recorded, error) {
	if err := s.create(ctx, &p); err != nil {
		return nil, err
	}
	metrics.RecordPayment("subscription", string(p.PaymentMethod), p.Amount)

	res := &Recorded{Payment: &p}
	if p.MemberID == "" || IsSessionMemberID(p.MemberID) {
		return res, nil
	}

	payer, err := s.members.FindMember(ctx, p.MemberID)
	if err != nil {
		sideeffect.Note(&res.Warnings, "member-lookup", err)
		return res, nil
	}
	if payer == nil {
		return res, nil
	}

	_, err = s.activities.Append(ctx, activity.Activity{
		MemberID:    payer.ID,
		MemberName:  payer.Name,
		MemberImage: payer.ImageURL,
		Type:        activity.TypePayment,
		Timestamp:   s.now(),
		Details:     fmt.Sprintf("paid %d - %s", p.Amount, p.SubscriptionType),
	})
	sideeffect.Note(&res.Warnings, "activity", err)

	warnings, err := s.members.ResetSessions(ctx, payer.ID)
	res.Warnings.Merge(warnings)
	sideeffect.Note(&res.Warnings, "reset-sessions", err)

	if s.notifier != nil && payer.Email != "" {
		err = s.notifier.SendPaymentReceipt(ctx, payer.Email, payer.Name, p.InvoiceNumber, p.SubscriptionType, p.Amount, p.Date)
		sideeffect.Note(&res.Warnings, "receipt", err)
	}

	return res, nil
}

// RecordSessionPayment sells a single session to a walk-in under a fresh
// pseudo member id. The member registry is not touched.
func (s *service) RecordSessionPayment(ctx context.Context, displayName, phone string) (*SessionSale, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperr.Validation("name is required")
	}

	memberID := SessionMemberPrefix + uuid.NewString()
	p := s.sessionPayment(memberID, displayName, strings.TrimSpace(phone))
	if err := s.create(ctx, &p); err != nil {
		return nil, err
	}
	metrics.RecordPayment("session", string(p.PaymentMethod), p.Amount)

	sale := &SessionSale{Payment: &p, MemberID: memberID}
	_, err := s.activities.Append(ctx, activity.Activity{
		MemberID:   memberID,
		MemberName: displayName,
		Type:       activity.TypePayment,
		Timestamp:  s.now(),
		Details:    fmt.Sprintf("single session payment - %d", p.Amount),
	})
	sideeffect.Note(&sale.Warnings, "activity", err)

	_, err = s.activities.Append(ctx, activity.Activity{
		MemberID:   memberID,
		MemberName: displayName,
		Type:       activity.TypeCheckIn,
		Timestamp:  s.now(),
		Details:    "single session check-in",
	})
	sideeffect.Note(&sale.Warnings, "activity", err)

	return sale, nil
}

// UpdatePayment replaces a stored payment. A zero date, empty invoice number
// or empty status keeps the stored value.
func (s *service) UpdatePayment(ctx context.Context, p Payment) (*Payment, error) {
	if p.ID == "" {
		return nil, apperr.Validation("payment id is required")
	}
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if p.Date.IsZero() {
		p.Date = existing.Date
	}
	if p.InvoiceNumber == "" {
		p.InvoiceNumber = existing.InvoiceNumber
	}
	if p.Status == "" {
		p.Status = existing.Status
	}
	p.Status = normalizeStatus(p.Status)
	p.PaymentMethod = NormalizeMethod(p.PaymentMethod)
	if err := validation.Struct(p); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePayment removes the record. Sessions granted by it are kept.
func (s *service) DeletePayment(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) GetPayment(ctx context.Context, id string) (*Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListPayments(ctx context.Context) ([]Payment, error) {
	return s.repo.List(ctx)
}

func (s *service) ListByMember(ctx context.Context, memberID string) ([]Payment, error) {
	return s.repo.ListByMember(ctx, memberID)
}

func (s *service) PriceForSubscription(plan string) int64 {
	return PriceForSubscription(plan)
}

func (s *service) Statistics(ctx context.Context) (*Statistics, error) {
	payments, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(payments, s.now()), nil
}

// Summarize aggregates revenue around now. payments must be newest first.
// Negative amounts count as zero.
func Summarize(payments []Payment, now time.Time) *Statistics {
	loc := now.Location()
	today := now.Format(time.DateOnly)
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, -1, 0)

	st := &Statistics{
		PaymentCount:              len(payments),
		SubscriptionTypeBreakdown: map[string]int{},
		RecentPayments:            []Payment{},
		GeneratedAt:               now,
	}
	for _, p := range payments {
		amount := p.Amount
		if amount < 0 {
			amount = 0
		}
		st.TotalRevenue += amount

		if !p.Date.IsZero() {
			if p.Date.In(loc).Format(time.DateOnly) == today {
				st.TodayRevenue += amount
			}
			if !p.Date.Before(weekAgo) {
				st.WeekRevenue += amount
			}
			if !p.Date.Before(monthAgo) {
				st.MonthRevenue += amount
			}
			if len(st.RecentPayments) < recentPaymentsLimit {
				st.RecentPayments = append(st.RecentPayments, p)
			}
		}

		plan := strings.TrimSpace(p.SubscriptionType)
		if plan == "" {
			plan = UnspecifiedPlan
		}
		st.SubscriptionTypeBreakdown[plan]++
	}
	if st.PaymentCount > 0 {
		st.AveragePayment = float64(st.TotalRevenue) / float64(st.PaymentCount)
	}
	return st
}

// SyncStatusFromAttendance keeps the member's payment history in step with a
// check-in. A member with no payments gets a single-session payment under
// their own id; otherwise the latest payment is annotated with the date.
func (s *service) SyncStatusFromAttendance(ctx context.Context, memberID, date string) (apperr.Warnings, error) {
	payments, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	var warnings apperr.Warnings
	if len(payments) == 0 {
		payer, err := s.members.FindMember(ctx, memberID)
		if err != nil || payer == nil {
			return nil, err
		}

		p := s.sessionPayment(payer.ID, payer.Name, "")
		if err := s.create(ctx, &p); err != nil {
			return nil, err
		}
		metrics.RecordPayment("session", string(p.PaymentMethod), p.Amount)

		_, err = s.activities.Append(ctx, activity.Activity{
			MemberID:    payer.ID,
			MemberName:  payer.Name,
			MemberImage: payer.ImageURL,
			Type:        activity.TypePayment,
			Timestamp:   s.now(),
			Details:     fmt.Sprintf("single session payment - %d", p.Amount),
		})
		sideeffect.Note(&warnings, "activity", err)
		return warnings, nil
	}

	latest := payments[0]
	note := "attendance on " + date
	if latest.Notes != "" {
		latest.Notes += " | " + note
	} else {
		latest.Notes = note
	}
	latest.LastAttendanceDate = date
	if err := s.repo.Update(ctx, &latest); err != nil {
		return nil, err
	}

	_, err = s.activities.Append(ctx, activity.Activity{
		MemberID:  memberID,
		Type:      activity.TypeCheckIn,
		Timestamp: s.now(),
		Details:   "payment status updated from attendance",
	})
	sideeffect.Note(&warnings, "activity", err)
	return warnings, nil
}

// Import stores payments from a backup under their own ids. Missing fields
// get the same defaults as a new payment, and the invoice sequence is moved
// past every imported INV-#### number.
func (s *service) Import(ctx context.Context, payments []Payment) (int, error) {
	var highest int64
	for i := range payments {
		p := payments[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Date.IsZero() {
			p.Date = s.now()
		}
		p.Status = normalizeStatus(p.Status)
		p.PaymentMethod = NormalizeMethod(p.PaymentMethod)
		if p.InvoiceNumber == "" {
			n, err := s.invoices.Next(ctx)
			if err != nil {
				return i, err
			}
			p.InvoiceNumber = FormatInvoice(n)
		}
		if n, ok := ParseInvoice(p.InvoiceNumber); ok && n > highest {
			highest = n
		}

		if err := s.repo.Upsert(ctx, &p); err != nil {
			return i, err
		}
	}

	if err := s.invoices.Advance(ctx, highest); err != nil {
		return len(payments), err
	}
	return len(payments), nil
}

func (s *service) sessionPayment(memberID, name, phone string) Payment {
	notes := "single session - " + name
	if phone != "" {
		notes += " (" + phone + ")"
	}
	return Payment{
		MemberID:         memberID,
		Amount:           PriceForSubscription(PlanSingleSession),
		Date:             s.now(),
		SubscriptionType: PlanSingleSession,
		PaymentMethod:    MethodCash,
		Status:           StatusCompleted,
		Notes:            notes,
	}
}

// create fills in id, invoice number and defaults, then persists p.
func (s *service) create(ctx context.Context, p *Payment) error {
	if err := validation.Struct(*p); err != nil {
		return err
	}

	n, err := s.invoices.Next(ctx)
	if err != nil {
		return err
	}
	p.ID = uuid.NewString()
	p.InvoiceNumber = FormatInvoice(n)
	p.Status = normalizeStatus(p.Status)
	p.PaymentMethod = NormalizeMethod(p.PaymentMethod)
	if p.Date.IsZero() {
		p.Date = s.now()
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	return nil
}
