package member

import "time"

type MembershipStatus string
type PaymentStatus string
type SubscriptionType string

const (
	StatusActive  MembershipStatus = "active"
	StatusExpired MembershipStatus = "expired"
	StatusPending MembershipStatus = "pending"

	PaymentPaid    PaymentStatus = "paid"
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"

	Subscription13 SubscriptionType = "13 حصة"
	Subscription15 SubscriptionType = "15 حصة"
	Subscription20 SubscriptionType = "20 حصة"
	Subscription30 SubscriptionType = "30 حصة"
)

// DateLayout is the calendar-date format of LastAttendance and the
// membership period fields.
const DateLayout = "2006-01-02"

type Member struct {
	ID                  string           `db:"id" json:"id"`
	Name                string           `db:"name" json:"name" validate:"required"`
	MembershipStatus    MembershipStatus `db:"membership_status" json:"membershipStatus"`
	MembershipType      string           `db:"membership_type" json:"membershipType,omitempty"`
	MembershipStartDate string           `db:"membership_start_date" json:"membershipStartDate,omitempty"`
	MembershipEndDate   string           `db:"membership_end_date" json:"membershipEndDate,omitempty"`
	SubscriptionType    SubscriptionType `db:"subscription_type" json:"subscriptionType,omitempty"`
	SessionsRemaining   int              `db:"sessions_remaining" json:"sessionsRemaining" validate:"gte=0"`
	SubscriptionPrice   int64            `db:"subscription_price" json:"subscriptionPrice" validate:"gte=0"`
	PaymentStatus       PaymentStatus    `db:"payment_status" json:"paymentStatus,omitempty"`
	LastAttendance      string           `db:"last_attendance" json:"lastAttendance,omitempty"`
	Note                string           `db:"note" json:"note,omitempty"`
	PhoneNumber         string           `db:"phone_number" json:"phoneNumber,omitempty"`
	Email               string           `db:"email" json:"email,omitempty" validate:"omitempty,email"`
	ImageURL            string           `db:"image_url" json:"imageUrl,omitempty"`
}

// HasSubscription reports whether the member is on a session-based plan.
func (m Member) HasSubscription() bool {
	return m.SubscriptionType != ""
}

// AttendedOn reports whether the last check-in fell on the given calendar
// day. Time components in LastAttendance are ignored.
func (m Member) AttendedOn(day string) bool {
	return m.LastAttendance != "" && DateOf(m.LastAttendance) == day
}

// SessionsFor returns the number of sessions a plan grants; unknown plans
// grant none.
func SessionsFor(t SubscriptionType) int {
	switch t {
	case Subscription13:
		return 13
	case Subscription15:
		return 15
	case Subscription20:
		return 20
	case Subscription30:
		return 30
	default:
		return 0
	}
}

// DateOf trims an ISO timestamp down to its calendar date.
func DateOf(s string) string {
	if len(s) >= len(DateLayout) {
		if _, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return s[:len(DateLayout)]
		}
	}
	return s
}

// Normalize applies the defaults used for imported or loosely filled
// records: unknown membership status becomes pending, unknown payment status
// becomes unpaid and a negative session balance becomes zero.
func Normalize(m *Member) {
	switch m.MembershipStatus {
	case StatusActive, StatusExpired, StatusPending:
	default:
		m.MembershipStatus = StatusPending
	}
	switch m.PaymentStatus {
	case "", PaymentPaid, PaymentUnpaid, PaymentPartial:
	default:
		m.PaymentStatus = PaymentUnpaid
	}
	if m.SessionsRemaining < 0 {
		m.SessionsRemaining = 0
	}
	if m.LastAttendance != "" {
		m.LastAttendance = DateOf(m.LastAttendance)
	}
}

// Overview holds the dashboard counters derived from the member registry.
type Overview struct {
	TotalMembers      int `json:"totalMembers"`
	ActiveMembers     int `json:"activeMembers"`
	TodayAttendance   int `json:"todayAttendance"`
	WeeklyAttendance  int `json:"weeklyAttendance"`
	PendingPayments   int `json:"pendingPayments"`
	ExhaustedSessions int `json:"exhaustedSessions"`
}
