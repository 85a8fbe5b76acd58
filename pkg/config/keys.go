package config

// EnvPrefix is empty because every field carries its fully qualified name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "PDV_APP_ENV"
	EnvPort     = "PDV_APP_PORT"
	EnvLogLevel = "PDV_LOG_LEVEL"
	EnvTimezone = "PDV_TIMEZONE"
	EnvCORS     = "PDV_CORS_ORIGINS"

	EnvRedisURL = "PDV_REDIS_URL"

	EnvAPIBaseURL = "PDV_API_BASE_URL"
	EnvAPITimeout = "PDV_API_TIMEOUT"

	EnvCatalogLookupTTL = "PDV_CATALOG_LOOKUP_CACHE_TTL"

	EnvSessionIdleTTL = "PDV_TERMINAL_SESSION_IDLE_TTL"
	EnvSweepInterval  = "PDV_TERMINAL_SWEEP_INTERVAL"

	EnvHistoryDefaultLimit = "PDV_HISTORY_DEFAULT_LIMIT"
	EnvHistoryMaxLimit     = "PDV_HISTORY_MAX_LIMIT"

	EnvLoginRateWindow        = "PDV_LOGIN_RATE_WINDOW"
	EnvLoginRateUsernameLimit = "PDV_LOGIN_RATE_USERNAME_LIMIT"
)
