package config

const EnvPrefix = "FREIGHTQUOTE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "FREIGHTQUOTE_APP_ENV"
	EnvPort     = "FREIGHTQUOTE_APP_PORT"
	EnvLogLevel = "FREIGHTQUOTE_LOG_LEVEL"

	EnvDBDSN  = "FREIGHTQUOTE_DB_DSN"
	EnvDBHost = "FREIGHTQUOTE_DB_HOST"
	EnvDBUser = "FREIGHTQUOTE_DB_USER"
	EnvDBName = "FREIGHTQUOTE_DB_NAME"

	EnvRedisURL = "FREIGHTQUOTE_REDIS_URL"

	EnvJWTSecret  = "FREIGHTQUOTE_JWT_SECRET"
	EnvJWTIssuer  = "FREIGHTQUOTE_JWT_ISSUER"
	EnvJWTExpMins = "FREIGHTQUOTE_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "FREIGHTQUOTE_GCP_PROJECT_ID"

	EnvSheetsQuotationsID = "FREIGHTQUOTE_SHEETS_QUOTATIONS_ID"
	EnvSheetsTimeID       = "FREIGHTQUOTE_SHEETS_TIME_ID"
	EnvDriveParentFolder  = "FREIGHTQUOTE_DRIVE_PARENT_FOLDER_ID"
	EnvSubmissionAttempts = "FREIGHTQUOTE_SUBMISSION_MAX_ATTEMPTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
