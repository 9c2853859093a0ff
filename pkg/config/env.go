package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for ad hoc lookups.
const EnvPrefix = "LEAFLINE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv     = "LEAFLINE_APP_ENV"
	EnvPort       = "LEAFLINE_APP_PORT"
	EnvDBDSN      = "LEAFLINE_DB_DSN"
	EnvDBHost     = "LEAFLINE_DB_HOST"
	EnvDBUser     = "LEAFLINE_DB_USER"
	EnvDBName     = "LEAFLINE_DB_NAME"
	EnvRedisURL   = "LEAFLINE_REDIS_URL"
	EnvJWTSecret  = "LEAFLINE_JWT_SECRET"
	EnvJWTIssuer  = "LEAFLINE_JWT_ISSUER"
	EnvJWTExpMins = "LEAFLINE_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
