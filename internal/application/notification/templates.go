package notification

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/saverr-hub/internal/domain"
)

// Render returns the chat text for e, or false when the status is not worth
// a message. The switches cover every status in domain; anything else renders
// to nothing and is only pushed raw.
func Render(e domain.NotificationEvent) (string, bool) {
	switch e.Kind {
	case domain.EventTransactionStatus:
		return renderTransaction(e.Transaction)
	case domain.EventVerificationStatus:
		return renderVerification(e.Verification.Status)
	}
	return "", false
}

func renderTransaction(tx domain.TransactionPayload) (string, bool) {
	ref := escapeMarkdown(tx.Reference)
	switch tx.Status {
	case domain.TxCreated:
		return "", false
	case domain.TxAwaitingConfirmation:
		return fmt.Sprintf("⏳ *Confirmation requise*\n\n📋 %s\n💰 %s\n\n👉 /confirm %s", ref, formatAmount(tx), ref), true
	case domain.TxProcessing:
		return fmt.Sprintf("🔄 *Transaction en cours*\n\n📋 %s\n📊 PROCESSING\n\n👉 /status %s", ref, ref), true
	case domain.TxDeposited:
		return fmt.Sprintf("🏦 *Fonds reçus*\n\n📋 %s\n💰 %s\n📊 DEPOSITED", ref, formatAmount(tx)), true
	case domain.TxTransferred:
		return fmt.Sprintf("📤 *Fonds transférés*\n\n📋 %s\n💰 %s\n📊 TRANSFERRED", ref, formatAmount(tx)), true
	case domain.TxCompleted:
		return fmt.Sprintf("✅ *Transaction terminée*\n\n📋 %s\n💰 %s\n📊 COMPLETED", ref, formatAmount(tx)), true
	case domain.TxCancelled:
		return fmt.Sprintf("🚫 *Transaction annulée*\n\n📋 %s\n📊 CANCELLED", ref), true
	case domain.TxFailed:
		return fmt.Sprintf("❌ *Transaction échouée*\n\n📋 %s\n📊 FAILED\n\n💬 support@saverr.com", ref), true
	}
	return "", false
}

func renderVerification(s domain.VerificationStatus) (string, bool) {
	switch s {
	case domain.VerificationDraft:
		return "", false
	case domain.VerificationPending:
		return "📋 *KYC soumis*\nTon dossier est en cours d'analyse.", true
	case domain.VerificationApproved:
		return "✅ *KYC validé !*\nTu peux maintenant passer à l'étape suivante, RDV sur l'app Saverr.", true
	case domain.VerificationRejected:
		return "❌ *KYC refusé*\nContacte le support Saverr pour plus d'informations.", true
	}
	return "", false
}

func formatAmount(tx domain.TransactionPayload) string {
	amount := strconv.FormatFloat(tx.Amount, 'f', -1, 64)
	if tx.Currency == "" {
		return amount
	}
	return amount + " " + escapeMarkdown(tx.Currency)
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// escapeMarkdown protects interpolated values in legacy Telegram Markdown;
// references such as tx_ref_ab12 would otherwise open an italic entity.
func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

var markdownStripper = strings.NewReplacer(`\_`, "_", `\*`, "*", "\\`", "`", `\[`, "[", "*", "", "`", "")

// PlainText drops markdown markup for channels that render raw text (SMS).
func PlainText(s string) string { return markdownStripper.Replace(s) }
