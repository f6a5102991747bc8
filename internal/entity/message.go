package entity

import "time"

type MessageType string

const (
	MessageDirect    MessageType = "direct"
	MessageTeam      MessageType = "team"
	MessageBroadcast MessageType = "broadcast"
	MessageEmergency MessageType = "emergency"
)

type MessagePriority string

const (
	PriorityLow      MessagePriority = "low"
	PriorityNormal   MessagePriority = "normal"
	PriorityHigh     MessagePriority = "high"
	PriorityCritical MessagePriority = "critical"
)

// Message is a peer/team chat entry. Delivery success is not tracked,
// only read status. IsEmergency is a snapshot of Priority == critical
// taken at creation and never recomputed.
type Message struct {
	ID          string          `json:"id" db:"id"`
	Content     string          `json:"content" db:"content"`
	Type        MessageType     `json:"type" db:"type"`
	Priority    MessagePriority `json:"priority" db:"priority"`
	SenderID    string          `json:"sender_id" db:"sender_id"`
	SenderName  string          `json:"sender_name" db:"sender_name"`
	SenderRole  Role            `json:"sender_role" db:"sender_role"`
	Recipients  string          `json:"recipients" db:"recipients"`
	TargetZone  string          `json:"target_zone,omitempty" db:"target_zone"`
	SpecificIDs []string        `json:"specific_recipients,omitempty" db:"specific_recipients"`
	IsEmergency bool            `json:"is_emergency" db:"is_emergency"`
	ReadBy      []ReadReceipt   `json:"read_by" db:"read_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// Spec reconstructs the RecipientSpec from the persisted wire fields.
func (m *Message) Spec() (RecipientSpec, error) {
	return ParseRecipientSpec(m.Recipients, m.TargetZone, m.SpecificIDs)
}

// MessageFilter narrows inbox queries for one user.
type MessageFilter struct {
	Type     string
	Priority string
	Page     int
	Limit    int
}

// MessageStats are the per-user counters exposed by the messages API.
type MessageStats struct {
	TotalSent      int64 `json:"total_sent"`
	TotalReceived  int64 `json:"total_received"`
	UnreadCount    int64 `json:"unread_count"`
	EmergencyCount int64 `json:"emergency_count"`
}
