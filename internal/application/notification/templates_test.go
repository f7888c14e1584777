package notification

import (
	"testing"

	"github.com/saverr-hub/internal/domain"
	"github.com/stretchr/testify/assert"
)

func txEvent(status domain.TransactionStatus) domain.NotificationEvent {
	return domain.NewTransactionEvent(42, domain.TransactionPayload{
		TransactionID: "01J0TX",
		Reference:     "tx_ref_ab12cd34",
		Amount:        125.5,
		Currency:      "EUR",
		Status:        status,
	})
}

func TestRender_EveryTransactionStatusDecided(t *testing.T) {
	for _, st := range domain.TransactionStatuses {
		text, ok := Render(txEvent(st))
		if st == domain.TxCreated {
			assert.False(t, ok, "CREATED must stay silent")
			assert.Empty(t, text)
			continue
		}
		assert.True(t, ok, "%s has no template", st)
		assert.Contains(t, text, `tx\_ref\_ab12cd34`, st)
	}
}

func TestRender_EveryVerificationStatusDecided(t *testing.T) {
	for _, st := range domain.VerificationStatuses {
		_, ok := Render(domain.NewVerificationEvent(42, st))
		assert.Equal(t, st != domain.VerificationDraft, ok, st)
	}
}

func TestRender_UnknownStatusesAreSilent(t *testing.T) {
	_, ok := Render(txEvent("REFUNDED"))
	assert.False(t, ok)
	_, ok = Render(domain.NewVerificationEvent(1, "MANUAL_REVIEW"))
	assert.False(t, ok)
	_, ok = Render(domain.NotificationEvent{Kind: "other"})
	assert.False(t, ok)
}

func TestRender_AmountFormatting(t *testing.T) {
	text, ok := Render(txEvent(domain.TxCompleted))
	assert.True(t, ok)
	assert.Contains(t, text, "125.5 EUR")
}

func TestPlainText(t *testing.T) {
	text, _ := Render(txEvent(domain.TxCancelled))
	plain := PlainText(text)
	assert.NotContains(t, plain, "*")
	assert.Contains(t, plain, "tx_ref_ab12cd34")
}

func TestPushFor(t *testing.T) {
	p := PushFor(txEvent("REFUNDED"))
	assert.Equal(t, PushTransactionUpdated, p.Type)
	assert.Equal(t, "REFUNDED", p.Transaction.Status)
	assert.Equal(t, "tx_ref_ab12cd34", p.Transaction.Reference)

	k := PushFor(domain.NewVerificationEvent(1, domain.VerificationApproved))
	assert.Equal(t, PushMessage{Type: PushKYCUpdated, KYCStatus: "APPROVED"}, k)

	assert.Equal(t, PushMessage{Type: PushHello, TelegramUserID: 42}, Hello(42))
}
