package domain

import "time"

const (
	ChannelTelegram = "TELEGRAM"
	ChannelSMS      = "SMS"

	NotificationSent   = "SENT"
	NotificationFailed = "FAILED"
)

// Notification is one delivery attempt on a store-and-forward channel.
type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	TelegramUserID int64     `json:"telegram_user_id" dynamodbav:"telegram_user_id"`
	TransactionID  string    `json:"transaction_id,omitempty" dynamodbav:"transaction_id,omitempty"`
	Channel        string    `json:"channel" dynamodbav:"channel"`
	Type           string    `json:"type" dynamodbav:"type"` // event kind + ":" + status
	Message        string    `json:"message" dynamodbav:"message"`
	Status         string    `json:"status" dynamodbav:"status"`
	Error          string    `json:"error,omitempty" dynamodbav:"error,omitempty"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}
