package activity

import "time"

type Type string

const (
	TypeCheckIn           Type = "check-in"
	TypeMembershipRenewal Type = "membership-renewal"
	TypePayment           Type = "payment"
	TypeOther             Type = "other"
)

// Activity is one write-once entry of the audit trail. Member name and image
// are a snapshot taken when the event happened.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	MemberID    string    `db:"member_id" json:"memberId"`
	MemberName  string    `db:"member_name" json:"memberName,omitempty"`
	MemberImage string    `db:"member_image" json:"memberImage,omitempty"`
	Type        Type      `db:"activity_type" json:"activityType"`
	Timestamp   time.Time `db:"occurred_at" json:"timestamp"`
	Details     string    `db:"details" json:"details"`
}

// NormalizeType maps unknown activity types to TypeOther.
func NormalizeType(t Type) Type {
	switch t {
	case TypeCheckIn, TypeMembershipRenewal, TypePayment, TypeOther:
		return t
	default:
		return TypeOther
	}
}
