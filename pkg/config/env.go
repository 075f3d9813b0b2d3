package config

const (
	EnvPrefix = "LANDHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "LANDHUB_APP_ENV"
	EnvPort      = "LANDHUB_APP_PORT"
	EnvLogLevel  = "LANDHUB_LOG_LEVEL"
	EnvLogFormat = "LANDHUB_LOG_FORMAT"

	EnvDBDSN  = "LANDHUB_DB_DSN"
	EnvDBHost = "LANDHUB_DB_HOST"
	EnvDBUser = "LANDHUB_DB_USER"
	EnvDBName = "LANDHUB_DB_NAME"

	EnvRedisURL = "LANDHUB_REDIS_URL"

	EnvJWTSecret  = "LANDHUB_JWT_SECRET"
	EnvJWTIssuer  = "LANDHUB_JWT_ISSUER"
	EnvJWTExpMins = "LANDHUB_JWT_EXPIRATION_MINUTES"

	EnvBidDefaultMinIncrement = "LANDHUB_BID_DEFAULT_MIN_INCREMENT"
	EnvBidMaxCASRetries       = "LANDHUB_BID_MAX_CAS_RETRIES"
	EnvFanoutQueueSize        = "LANDHUB_FANOUT_QUEUE_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
