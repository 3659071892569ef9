package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "CREDITPOOL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "CREDITPOOL_APP_ENV"
	EnvPort         = "CREDITPOOL_APP_PORT"
	EnvLogLevel     = "CREDITPOOL_LOG_LEVEL"
	EnvLogFormat    = "CREDITPOOL_LOG_FORMAT"
	EnvLogWarnStack = "CREDITPOOL_LOG_WARN_STACK"

	EnvHTTPCORSOrigins       = "CREDITPOOL_HTTP_CORS_ORIGINS"
	EnvHTTPRateLimitRequests = "CREDITPOOL_HTTP_RATE_LIMIT_REQUESTS"
	EnvHTTPRateLimitWindow   = "CREDITPOOL_HTTP_RATE_LIMIT_WINDOW"

	EnvDBDSN      = "CREDITPOOL_DB_DSN"
	EnvDBDriver   = "CREDITPOOL_DB_DRIVER"
	EnvDBHost     = "CREDITPOOL_DB_HOST"
	EnvDBPort     = "CREDITPOOL_DB_PORT"
	EnvDBUser     = "CREDITPOOL_DB_USER"
	EnvDBPassword = "CREDITPOOL_DB_PASSWORD"
	EnvDBName     = "CREDITPOOL_DB_NAME"
	EnvDBSSLMode  = "CREDITPOOL_DB_SSLMODE"

	EnvRedisURL            = "CREDITPOOL_REDIS_URL"
	EnvRedisAddr           = "CREDITPOOL_REDIS_ADDR"
	EnvRedisIdempotencyTTL = "CREDITPOOL_REDIS_IDEMPOTENCY_TTL"

	EnvJWTSecret  = "CREDITPOOL_JWT_SECRET"
	EnvJWTIssuer  = "CREDITPOOL_JWT_ISSUER"
	EnvJWTExpMins = "CREDITPOOL_JWT_EXPIRATION_MINUTES"

	EnvLedgerStoreTimeout = "CREDITPOOL_LEDGER_STORE_TIMEOUT"
	EnvLedgerMaxAttempts  = "CREDITPOOL_LEDGER_MAX_ATTEMPTS"
	EnvLedgerRetryBackoff = "CREDITPOOL_LEDGER_RETRY_BACKOFF"

	EnvCronInterval = "CREDITPOOL_CRON_INTERVAL"
	EnvCronLockTTL  = "CREDITPOOL_CRON_LOCK_TTL"

	EnvUseSQLite   = "CREDITPOOL_USE_SQLITE"
	EnvAutoMigrate = "CREDITPOOL_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
