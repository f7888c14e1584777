package notification

import "github.com/saverr-hub/internal/domain"

// Push frame types understood by the mini app.
const (
	PushHello              = "hello"
	PushTransactionUpdated = "transaction_updated"
	PushKYCUpdated         = "kyc_updated"
)

// PushMessage is the JSON frame written to push connections. Push frames are
// data, so statuses without a chat template are still forwarded as-is.
type PushMessage struct {
	Type           string           `json:"type"`
	TelegramUserID int64            `json:"telegramUserId,omitempty"`
	KYCStatus      string           `json:"kyc_status,omitempty"`
	Transaction    *TransactionView `json:"transaction,omitempty"`
}

type TransactionView struct {
	ID        string  `json:"id,omitempty"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status"`
}

// Hello is the acknowledgement sent once a push connection is authenticated.
func Hello(identity int64) PushMessage {
	return PushMessage{Type: PushHello, TelegramUserID: identity}
}

// PushFor converts an event to its push frame.
func PushFor(e domain.NotificationEvent) PushMessage {
	if e.Kind == domain.EventVerificationStatus {
		return PushMessage{Type: PushKYCUpdated, KYCStatus: string(e.Verification.Status)}
	}
	tx := e.Transaction
	return PushMessage{
		Type: PushTransactionUpdated,
		Transaction: &TransactionView{
			ID:        tx.TransactionID,
			Reference: tx.Reference,
			Amount:    tx.Amount,
			Currency:  tx.Currency,
			Status:    string(tx.Status),
		},
	}
}
