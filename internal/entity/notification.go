package entity

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type NotificationStatus string

const (
	StatusPending   NotificationStatus = "pending"
	StatusSending   NotificationStatus = "sending"
	StatusCompleted NotificationStatus = "completed"
	StatusCancelled NotificationStatus = "cancelled"
)

// Channels selects the delivery paths for one notification. SMS is
// accepted and persisted but has no transport attached, so it never
// contributes to delivery stats.
type Channels struct {
	InApp bool `json:"in_app"`
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

// DeliveryStats tracks per-dispatch delivery accounting.
// Invariant: Delivered + Failed + Pending == Total after initialization.
type DeliveryStats struct {
	Total     int `json:"total"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
}

type ReadReceipt struct {
	UserID string    `json:"user"`
	ReadAt time.Time `json:"read_at"`
}

// NotificationRequest is the immutable input of one dispatch.
type NotificationRequest struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Severity Severity               `json:"severity"`
	Spec     RecipientSpec          `json:"spec"`
	Channels Channels               `json:"channels"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type Notification struct {
	ID            string                 `json:"id" db:"id"`
	Type          string                 `json:"type" db:"type"`
	Title         string                 `json:"title" db:"title"`
	Message       string                 `json:"message" db:"message"`
	Severity      Severity               `json:"severity" db:"severity"`
	Recipients    string                 `json:"recipients" db:"recipients"`
	TargetZone    string                 `json:"target_zone,omitempty" db:"target_zone"`
	SpecificIDs   []string               `json:"specific_recipients,omitempty" db:"specific_recipients"`
	Channels      Channels               `json:"channels" db:"channels"`
	SentBy        string                 `json:"sent_by" db:"sent_by"`
	SentByRole    Role                   `json:"sent_by_role" db:"sent_by_role"`
	Status        NotificationStatus     `json:"status" db:"status"`
	DeliveryStats DeliveryStats          `json:"delivery_stats" db:"delivery_stats"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	ReadBy        []ReadReceipt          `json:"read_by" db:"read_by"`
	ScheduledFor  *time.Time             `json:"scheduled_for,omitempty" db:"scheduled_for"`
	SentAt        *time.Time             `json:"sent_at,omitempty" db:"sent_at"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at" db:"updated_at"`
}

// Spec reconstructs the RecipientSpec from the persisted wire fields.
func (n *Notification) Spec() (RecipientSpec, error) {
	return ParseRecipientSpec(n.Recipients, n.TargetZone, n.SpecificIDs)
}

// HistoryFilter narrows notification history queries.
type HistoryFilter struct {
	Type       string
	Severity   string
	Recipients string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	Limit      int
}

// NotificationStats aggregates counts for a time range.
type NotificationStats struct {
	TotalSent       int64 `json:"total_sent"`
	TotalDelivered  int64 `json:"total_delivered"`
	TotalFailed     int64 `json:"total_failed"`
	EmergencyAlerts int64 `json:"emergency_alerts"`
	Announcements   int64 `json:"announcements"`
	TestSends       int64 `json:"test_sends"`
}
