package domain

import (
	"strings"
	"time"
)

// TransactionStatus is owned by the backend; this service only reacts to it,
// except for the two user-driven moves (confirm, cancel) exposed by the API.
//
//	CREATED -> AWAITING_CONFIRMATION -> PROCESSING -> (DEPOSITED ->) (TRANSFERRED ->) COMPLETED
//
// CANCELLED and FAILED are reachable from any non-terminal state.
type TransactionStatus string

const (
	TxCreated              TransactionStatus = "CREATED"
	TxAwaitingConfirmation TransactionStatus = "AWAITING_CONFIRMATION"
	TxProcessing           TransactionStatus = "PROCESSING"
	TxDeposited            TransactionStatus = "DEPOSITED"
	TxTransferred          TransactionStatus = "TRANSFERRED"
	TxCompleted            TransactionStatus = "COMPLETED"
	TxCancelled            TransactionStatus = "CANCELLED"
	TxFailed               TransactionStatus = "FAILED"
)

// TransactionStatuses lists every known status, in lifecycle order.
var TransactionStatuses = []TransactionStatus{
	TxCreated,
	TxAwaitingConfirmation,
	TxProcessing,
	TxDeposited,
	TxTransferred,
	TxCompleted,
	TxCancelled,
	TxFailed,
}

var txRank = map[TransactionStatus]int{
	TxCreated:              0,
	TxAwaitingConfirmation: 1,
	TxProcessing:           2,
	TxDeposited:            3,
	TxTransferred:          4,
	TxCompleted:            5,
}

// optional steps may be skipped on the way to COMPLETED.
var txOptional = map[TransactionStatus]bool{
	TxDeposited:   true,
	TxTransferred: true,
}

func ParseTransactionStatus(s string) TransactionStatus {
	return TransactionStatus(strings.ToUpper(strings.TrimSpace(s)))
}

func (s TransactionStatus) Known() bool {
	_, ok := txRank[s]
	return ok || s == TxCancelled || s == TxFailed
}

func (s TransactionStatus) Terminal() bool {
	return s == TxCompleted || s == TxCancelled || s == TxFailed
}

// CanTransitionTo reports whether next is reachable from s in one move.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if !s.Known() || !next.Known() || s.Terminal() {
		return false
	}
	if next == TxCancelled || next == TxFailed {
		return true
	}
	from, to := txRank[s], txRank[next]
	if to <= from {
		return false
	}
	for _, st := range TransactionStatuses {
		r, ok := txRank[st]
		if ok && r > from && r < to && !txOptional[st] {
			return false
		}
	}
	return true
}

type Transaction struct {
	TransactionID string            `json:"id" dynamodbav:"transaction_id"`
	UserID        string            `json:"user" dynamodbav:"user_id"`
	Reference     string            `json:"reference" dynamodbav:"reference"`
	Amount        float64           `json:"amount" dynamodbav:"amount"`
	Currency      string            `json:"currency" dynamodbav:"currency"`
	Status        TransactionStatus `json:"status" dynamodbav:"status"`
	Recipient     string            `json:"recipient,omitempty" dynamodbav:"recipient,omitempty"`
	Note          string            `json:"note,omitempty" dynamodbav:"note,omitempty"`
	CreatedAt     time.Time         `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time         `json:"updated" dynamodbav:"updated_at"`
}

type CreateTransactionRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Currency  string  `json:"currency" validate:"required,len=3"`
	Recipient string  `json:"recipient" validate:"omitempty,max=128"`
	Note      string  `json:"note" validate:"omitempty,max=280"`
}

// UpdateTransactionStatusRequest carries a user decision. CONFIRMED is the
// mini app's word for moving an awaiting transaction to PROCESSING.
type UpdateTransactionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED PROCESSING CANCELLED"`
}
