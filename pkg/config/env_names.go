package config

// EnvPrefix is the envconfig prefix applied to every variable.
const EnvPrefix = "CANOPY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags (tests, error text).
const (
	EnvAppEnv    = "CANOPY_APP_ENV"
	EnvPort      = "CANOPY_APP_PORT"
	EnvDBDSN     = "CANOPY_DB_DSN"
	EnvDBHost    = "CANOPY_DB_HOST"
	EnvDBUser    = "CANOPY_DB_USER"
	EnvDBName    = "CANOPY_DB_NAME"
	EnvRedisURL  = "CANOPY_REDIS_URL"
	EnvJWTSecret = "CANOPY_JWT_SECRET"
	EnvJWTIssuer = "CANOPY_JWT_ISSUER"
	EnvJWTExpMin = "CANOPY_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
