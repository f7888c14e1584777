package domain

import "time"

// Identity is the authenticated caller of a request or push connection.
type Identity struct {
	TelegramUserID int64
	Username       string
	FirstName      string
	// Method is "tma" for a launch payload or "bearer" for a session token.
	Method string
}

// Session is a bearer token exchanged for a verified launch payload.
type Session struct {
	Token          string    `json:"token"`
	TelegramUserID int64     `json:"telegramUserId"`
	ExpiresAt      time.Time `json:"expires_at"`
}
