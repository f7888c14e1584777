package domain

import "time"

// User is the internal account record. TelegramUserID is zero until the
// account is linked from the mini app or the bot.
type User struct {
	UserID         string             `json:"id" dynamodbav:"user_id"`
	Name           string             `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Phone          string             `json:"phone" dynamodbav:"phone"`
	TelegramUserID int64              `json:"telegram_user_id,omitempty" dynamodbav:"telegram_user_id,omitempty"`
	TelegramChatID int64              `json:"telegram_chat_id,omitempty" dynamodbav:"telegram_chat_id,omitempty"`
	CorrelationID  string             `json:"correlation_id,omitempty" dynamodbav:"correlation_id,omitempty"`
	WalletAddress  string             `json:"wallet_address,omitempty" dynamodbav:"user_tw_eoa,omitempty"`
	IBAN           string             `json:"iban,omitempty" dynamodbav:"iban,omitempty"`
	KYCStatus      VerificationStatus `json:"kyc_status" dynamodbav:"kyc_status"`
	CreatedAt      time.Time          `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time          `json:"updated" dynamodbav:"updated_at"`
}

// Linked reports whether a messaging identity is attached to the account.
func (u *User) Linked() bool { return u != nil && u.TelegramUserID != 0 }

// ChatAddress returns the chat the bot writes to. Private chats share the
// user's id, so the explicit chat id is only set when the bot saw a different one.
func (u *User) ChatAddress() int64 {
	if u == nil {
		return 0
	}
	if u.TelegramChatID != 0 {
		return u.TelegramChatID
	}
	return u.TelegramUserID
}

type OnboardingRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=6,max=20"`
}

type WalletRequest struct {
	Address string `json:"address" validate:"required,min=3,max=128"`
}

// Wallet is the result of linking a wallet address to an account.
type Wallet struct {
	Address string `json:"address"`
	IBAN    string `json:"iban"`
}
