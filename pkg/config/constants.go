package config

const (
	EnvPrefix = "casaworks"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv     = "CASAWORKS_APP_ENV"
	EnvPort       = "CASAWORKS_APP_PORT"
	EnvDBDSN      = "CASAWORKS_DB_DSN"
	EnvDBHost     = "CASAWORKS_DB_HOST"
	EnvDBUser     = "CASAWORKS_DB_USER"
	EnvDBName     = "CASAWORKS_DB_NAME"
	EnvRedisURL   = "CASAWORKS_REDIS_URL"
	EnvJWTSecret  = "CASAWORKS_JWT_SECRET"
	EnvJWTIssuer  = "CASAWORKS_JWT_ISSUER"
	EnvJWTExpMins = "CASAWORKS_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
