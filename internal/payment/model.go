package payment

import (
	"strings"
	"time"

	"gymdesk/internal/apperr"
)

type Method string
type Status string

const (
	MethodCash     Method = "cash"
	MethodCard     Method = "card"
	MethodTransfer Method = "transfer"

	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

// Plan labels priced by PriceForSubscription.
const (
	PlanMonthly       = "شهري"
	Plan13Sessions    = "13 حصة"
	Plan15Sessions    = "15 حصة"
	Plan30Sessions    = "30 حصة"
	PlanSingleSession = "حصة واحدة"

	// UnspecifiedPlan buckets payments without a plan label in statistics.
	UnspecifiedPlan = "غير محدد"
)

// SessionMemberPrefix namespaces the pseudo member ids of walk-in sales so
// they never collide with registry ids.
const SessionMemberPrefix = "session_"

type Payment struct {
	ID                 string    `db:"id" json:"id"`
	MemberID           string    `db:"member_id" json:"memberId"`
	Amount             int64     `db:"amount" json:"amount" validate:"gte=0"`
	Date               time.Time `db:"paid_at" json:"date"`
	SubscriptionType   string    `db:"subscription_type" json:"subscriptionType"`
	PaymentMethod      Method    `db:"payment_method" json:"paymentMethod"`
	Status             Status    `db:"status" json:"status"`
	InvoiceNumber      string    `db:"invoice_number" json:"invoiceNumber"`
	Notes              string    `db:"notes" json:"notes,omitempty"`
	LastAttendanceDate string    `db:"last_attendance_date" json:"lastAttendanceDate,omitempty"`
}

// IsSessionMemberID reports whether id belongs to a walk-in pseudo member.
func IsSessionMemberID(id string) bool {
	return strings.HasPrefix(id, SessionMemberPrefix)
}

// NormalizeMethod maps anything outside the known methods to cash.
func NormalizeMethod(m Method) Method {
	switch m {
	case MethodCash, MethodCard, MethodTransfer:
		return m
	default:
		return MethodCash
	}
}

func normalizeStatus(s Status) Status {
	switch s {
	case StatusCompleted, StatusPending, StatusCancelled:
		return s
	default:
		return StatusCompleted
	}
}

// PriceForSubscription returns the list price of a plan label. Unknown and
// empty labels are priced like the 13-session plan.
func PriceForSubscription(plan string) int64 {
	switch strings.TrimSpace(plan) {
	case PlanMonthly:
		return 1500
	case Plan13Sessions:
		return 1000
	case Plan15Sessions:
		return 1800
	case Plan30Sessions:
		return 1800
	case PlanSingleSession:
		return 200
	default:
		return 1000
	}
}

// Payer is what the ledger needs to know about a registered member.
type Payer struct {
	ID       string
	Name     string
	ImageURL string
	Email    string
}

// Recorded is the result of RecordPayment.
type Recorded struct {
	Payment  *Payment        `json:"payment"`
	Warnings apperr.Warnings `json:"warnings,omitempty"`
}

// SessionSale is the result of RecordSessionPayment.
type SessionSale struct {
	Payment  *Payment        `json:"payment"`
	MemberID string          `json:"memberId"`
	Warnings apperr.Warnings `json:"warnings,omitempty"`
}

type Statistics struct {
	TotalRevenue              int64          `json:"totalRevenue"`
	TodayRevenue              int64          `json:"todayRevenue"`
	WeekRevenue               int64          `json:"weekRevenue"`
	MonthRevenue              int64          `json:"monthRevenue"`
	PaymentCount              int            `json:"paymentCount"`
	AveragePayment            float64        `json:"averagePayment"`
	SubscriptionTypeBreakdown map[string]int `json:"subscriptionTypeBreakdown"`
	RecentPayments            []Payment      `json:"recentPayments"`
	GeneratedAt               time.Time      `json:"generatedAt"`
}
