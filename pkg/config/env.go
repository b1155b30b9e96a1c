package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverRedis    = "redis"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

const (
	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvLogWarnStack = "STOREFRONT_LOG_WARN_STACK"
	EnvCORSOrigins  = "STOREFRONT_CORS_ORIGINS"

	EnvStorageDriver        = "STOREFRONT_STORAGE_DRIVER"
	EnvStorageWriteTimeout  = "STOREFRONT_STORAGE_WRITE_TIMEOUT"
	EnvStorageCoalesceDelay = "STOREFRONT_STORAGE_COALESCE_DELAY"
	EnvSQLitePath           = "STOREFRONT_SQLITE_PATH"
	EnvAutoMigrate          = "STOREFRONT_AUTO_MIGRATE"

	EnvDBDSN      = "STOREFRONT_DB_DSN"
	EnvDBHost     = "STOREFRONT_DB_HOST"
	EnvDBPort     = "STOREFRONT_DB_PORT"
	EnvDBUser     = "STOREFRONT_DB_USER"
	EnvDBPassword = "STOREFRONT_DB_PASSWORD"
	EnvDBName     = "STOREFRONT_DB_NAME"
	EnvDBSSLMode  = "STOREFRONT_DB_SSLMODE"

	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvRedisAddr = "STOREFRONT_REDIS_ADDR"

	EnvAPIBaseURL = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout = "STOREFRONT_API_TIMEOUT"

	EnvLoginRateLimitWindow     = "STOREFRONT_LOGIN_RATE_LIMIT_WINDOW"
	EnvLoginRateLimitIPLimit    = "STOREFRONT_LOGIN_RATE_LIMIT_IP_LIMIT"
	EnvLoginRateLimitEmailLimit = "STOREFRONT_LOGIN_RATE_LIMIT_EMAIL_LIMIT"
	EnvIdempotencyCheckoutTTL   = "STOREFRONT_IDEMPOTENCY_CHECKOUT_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
