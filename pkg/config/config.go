package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	Features  FeatureFlagsConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Broadcast BroadcastConfig
	Outbox    OutboxConfig
	Retention RetentionConfig

	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SYNCDECK_APP_ENV" required:"true"`
	Port         string `envconfig:"SYNCDECK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SYNCDECK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SYNCDECK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SYNCDECK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SYNCDECK_DB_DSN"`
	Driver string `envconfig:"SYNCDECK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SYNCDECK_DB_HOST"`
	LegacyPort     int    `envconfig:"SYNCDECK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SYNCDECK_DB_USER"`
	LegacyPassword string `envconfig:"SYNCDECK_DB_PASSWORD"`
	LegacyName     string `envconfig:"SYNCDECK_DB_NAME"`
	LegacySSLMode  string `envconfig:"SYNCDECK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SYNCDECK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SYNCDECK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SYNCDECK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SYNCDECK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SYNCDECK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SYNCDECK_REDIS_ADDR"`
	Password     string        `envconfig:"SYNCDECK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SYNCDECK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SYNCDECK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SYNCDECK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SYNCDECK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SYNCDECK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SYNCDECK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SYNCDECK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SYNCDECK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SYNCDECK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SYNCDECK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SYNCDECK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SYNCDECK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SYNCDECK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SYNCDECK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SYNCDECK_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SYNCDECK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SYNCDECK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SYNCDECK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SYNCDECK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DealsTopic        string `envconfig:"SYNCDECK_PUBSUB_DEALS_TOPIC" required:"true"`
	DealsSubscription string `envconfig:"SYNCDECK_PUBSUB_DEALS_SUBSCRIPTION" required:"true"`
}

type BroadcastConfig struct {
	ChannelPrefix string `envconfig:"SYNCDECK_BROADCAST_CHANNEL_PREFIX" default:"syncdeck:deals"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"SYNCDECK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"SYNCDECK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"SYNCDECK_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"SYNCDECK_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

type RetentionConfig struct {
	NotificationDays int `envconfig:"SYNCDECK_RETENTION_NOTIFICATION_DAYS" default:"90"`
	OutboxDays       int `envconfig:"SYNCDECK_RETENTION_OUTBOX_DAYS" default:"30"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"SYNCDECK_AUTH_RL_LOGIN_WINDOW" default:"15m"`
	LoginIPLimit    int           `envconfig:"SYNCDECK_AUTH_RL_LOGIN_IP_LIMIT" default:"30"`
	LoginEmailLimit int           `envconfig:"SYNCDECK_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SYNCDECK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,https://app.syncdeck.io"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
