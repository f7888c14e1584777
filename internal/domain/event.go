package domain

// EventKind discriminates NotificationEvent payloads.
type EventKind string

const (
	EventTransactionStatus  EventKind = "transaction_status"
	EventVerificationStatus EventKind = "verification_status"
)

type TransactionPayload struct {
	TransactionID string
	Reference     string
	Amount        float64
	Currency      string
	Status        TransactionStatus
}

type VerificationPayload struct {
	Status VerificationStatus
}

// NotificationEvent is a normalised backend change addressed to one
// messaging identity. Only the payload matching Kind is meaningful. It is
// passed by value and never mutated after construction.
type NotificationEvent struct {
	SubjectID    int64
	Kind         EventKind
	Transaction  TransactionPayload
	Verification VerificationPayload
}

func NewTransactionEvent(subjectID int64, p TransactionPayload) NotificationEvent {
	return NotificationEvent{SubjectID: subjectID, Kind: EventTransactionStatus, Transaction: p}
}

func NewVerificationEvent(subjectID int64, status VerificationStatus) NotificationEvent {
	return NotificationEvent{SubjectID: subjectID, Kind: EventVerificationStatus, Verification: VerificationPayload{Status: status}}
}

// Status returns the backend status carried by the event.
func (e NotificationEvent) Status() string {
	switch e.Kind {
	case EventTransactionStatus:
		return string(e.Transaction.Status)
	case EventVerificationStatus:
		return string(e.Verification.Status)
	}
	return ""
}
