package dynamo

// DynamoDB attribute and index names shared by the repos and Bootstrap.
const (
	fieldUserID         = "user_id"
	fieldTelegramUserID = "telegram_user_id"
	fieldPhone          = "phone"
	fieldCorrelationID  = "correlation_id"
	fieldTransactionID  = "transaction_id"
	fieldReference      = "reference"
	fieldStatus         = "status"
	fieldCreatedAt      = "created_at"
	fieldUpdatedAt      = "updated_at"
	fieldNotificationID = "notification_id"
	fieldGuardKey       = "guard_key"
	fieldLastStatus     = "last_status"
	fieldExpiresAt      = "expires_at"

	indexTelegramUserID = "telegram_user_id-index"
	indexPhone          = "phone-index"
	indexCorrelationID  = "correlation_id-index"
	indexUserCreatedAt  = "user_id-created_at-index"
	indexReference      = "reference-index"
	indexTelegramSent   = "telegram_user_id-created_at-index"
)
