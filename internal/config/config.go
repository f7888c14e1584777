package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort    string
	AppEnv     string
	LogLevel   string
	TrustProxy bool // honour X-Forwarded-For / X-Real-Ip for client IPs

	TelegramBotToken string
	TelegramPolling  bool
	InitDataMaxAge   time.Duration // 0 disables the auth_date freshness check

	WebhookSecret   string // empty disables X-Webhook-Signature verification
	WebhookDedupe   bool
	ChatSendTimeout time.Duration
	ChatWorkers     int // 0 sends chat and SMS inline with the webhook

	WSAuthTimeout  time.Duration
	WSWriteTimeout time.Duration
	WSSendBuffer   int

	AWSRegion       string
	AWSEndpointURL  string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID  string
	AWSSecretKey    string
	DynamoTables    DynamoTables
	S3ArchiveBucket string // empty disables webhook archiving
	SNSRegion       string
	SMSFallback     bool

	NoahAPIURL             string
	NoahAPIKey             string // empty switches onboarding to mock URLs
	OnboardingReturnURL    string
	OnboardingFiatCurrency string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Transactions  string
	Notifications string
	NotifyGuard   string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:    getEnv("APP_PORT", "3000"),
		AppEnv:     getEnv("APP_ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		TrustProxy: getEnvBool("TRUST_PROXY", false),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramPolling:  getEnvBool("TELEGRAM_POLLING", false),
		InitDataMaxAge:   getEnvDuration("INIT_DATA_MAX_AGE", 0),

		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		WebhookDedupe:   getEnvBool("WEBHOOK_DEDUPE", false),
		ChatSendTimeout: getEnvDuration("CHAT_SEND_TIMEOUT", 5*time.Second),
		ChatWorkers:     getEnvInt("CHAT_WORKERS", 16),

		WSAuthTimeout:  getEnvDuration("WS_AUTH_TIMEOUT", 5*time.Second),
		WSWriteTimeout: getEnvDuration("WS_WRITE_TIMEOUT", 10*time.Second),
		WSSendBuffer:   getEnvInt("WS_SEND_BUFFER", 32),

		AWSRegion:      getEnv("AWS_REGION", "eu-west-3"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Transactions:  getEnv("DYNAMO_TABLE_TRANSACTIONS", "transactions"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			NotifyGuard:   getEnv("DYNAMO_TABLE_NOTIFY_GUARD", "notify_guard"),
		},
		S3ArchiveBucket: getEnv("S3_ARCHIVE_BUCKET", ""),
		SNSRegion:       getEnv("SNS_REGION", "eu-west-3"),
		SMSFallback:     getEnvBool("SMS_FALLBACK", false),

		NoahAPIURL:             getEnv("NOAH_API_URL", "https://api.sandbox.noah.com/v1"),
		NoahAPIKey:             getEnv("NOAH_API_KEY", ""),
		OnboardingReturnURL:    getEnv("ONBOARDING_RETURN_URL", "https://saverr.io/webapp"),
		OnboardingFiatCurrency: getEnv("ONBOARDING_FIAT_CURRENCY", "EUR"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,https://saverr.io"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
