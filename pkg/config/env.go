package config

const (
	EnvPrefix = "DEALBOARD"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	CodeVerifierStrict    = "strict"
	CodeVerifierAcceptAny = "accept_any"

	CodeStoreRedis  = "redis"
	CodeStoreMemory = "memory"
)

const (
	EnvAppEnv  = "DEALBOARD_APP_ENV"
	EnvPort    = "DEALBOARD_APP_PORT"
	EnvLogLvl  = "DEALBOARD_LOG_LEVEL"
	EnvBaseURL = "DEALBOARD_PUBLIC_BASE_URL"

	EnvDBDSN  = "DEALBOARD_DB_DSN"
	EnvDBHost = "DEALBOARD_DB_HOST"
	EnvDBUser = "DEALBOARD_DB_USER"
	EnvDBName = "DEALBOARD_DB_NAME"

	EnvRedisURL = "DEALBOARD_REDIS_URL"

	EnvJWTSecret              = "DEALBOARD_JWT_SECRET"
	EnvJWTIssuer              = "DEALBOARD_JWT_ISSUER"
	EnvJWTExpMins             = "DEALBOARD_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "DEALBOARD_REFRESH_TOKEN_TTL_MINUTES"

	EnvAuthCodeTTL      = "DEALBOARD_AUTH_CODE_TTL"
	EnvAuthCodeVerifier = "DEALBOARD_AUTH_CODE_VERIFIER"
	EnvAuthCodeStore    = "DEALBOARD_AUTH_CODE_STORE"
	EnvAuthEchoCodes    = "DEALBOARD_AUTH_ECHO_CODES"

	EnvStorageEndpoint      = "DEALBOARD_STORAGE_ENDPOINT"
	EnvStoragePublicBaseURL = "DEALBOARD_STORAGE_PUBLIC_BASE_URL"
	EnvStorageMaxUpload     = "DEALBOARD_STORAGE_MAX_UPLOAD_BYTES"

	EnvCORSAllowedOrigins = "DEALBOARD_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
