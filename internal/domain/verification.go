package domain

import "strings"

// VerificationStatus is the identity-verification (KYC) state of an account.
//
//	DRAFT -> PENDING -> APPROVED | REJECTED
type VerificationStatus string

const (
	VerificationDraft    VerificationStatus = "DRAFT"
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// VerificationStatuses lists every status the system knows about, in lifecycle order.
var VerificationStatuses = []VerificationStatus{
	VerificationDraft,
	VerificationPending,
	VerificationApproved,
	VerificationRejected,
}

// ParseVerificationStatus normalises a status coming from an external record.
// Unknown values are returned upper-cased so they can still be forwarded raw.
func ParseVerificationStatus(s string) VerificationStatus {
	return VerificationStatus(strings.ToUpper(strings.TrimSpace(s)))
}

func (s VerificationStatus) Known() bool {
	for _, k := range VerificationStatuses {
		if s == k {
			return true
		}
	}
	return false
}

func (s VerificationStatus) Terminal() bool {
	return s == VerificationApproved || s == VerificationRejected
}
