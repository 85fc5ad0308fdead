package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for nested struct discovery.
const EnvPrefix = "SYNCDECK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Canonical environment variable names used by tests and tooling.
const (
	EnvAppEnv     = "SYNCDECK_APP_ENV"
	EnvPort       = "SYNCDECK_APP_PORT"
	EnvDBDSN      = "SYNCDECK_DB_DSN"
	EnvDBHost     = "SYNCDECK_DB_HOST"
	EnvDBUser     = "SYNCDECK_DB_USER"
	EnvDBName     = "SYNCDECK_DB_NAME"
	EnvRedisURL   = "SYNCDECK_REDIS_URL"
	EnvJWTSecret  = "SYNCDECK_JWT_SECRET"
	EnvJWTIssuer  = "SYNCDECK_JWT_ISSUER"
	EnvJWTExpMins = "SYNCDECK_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID   = "SYNCDECK_GCP_PROJECT_ID"
	EnvDealsTopic     = "SYNCDECK_PUBSUB_DEALS_TOPIC"
	EnvDealsSub       = "SYNCDECK_PUBSUB_DEALS_SUBSCRIPTION"
	EnvBroadcastPref  = "SYNCDECK_BROADCAST_CHANNEL_PREFIX"
	EnvAutoMigrate    = "SYNCDECK_AUTO_MIGRATE"
	EnvMigrationsPath = "SYNCDECK_MIGRATIONS_PATH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
