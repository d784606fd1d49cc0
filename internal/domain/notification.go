package domain

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

// NotificationPayload is derived purely from a RunOutcome; nothing is persisted.
type NotificationPayload struct {
	Title   string
	Body    string
	Urgency Urgency
}
