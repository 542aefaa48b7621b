package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stripe       StripeConfig
	Escrow       EscrowConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"CASAWORKS_APP_ENV" required:"true"`
	Port         string `envconfig:"CASAWORKS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CASAWORKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CASAWORKS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CASAWORKS_DB_DSN"`
	Driver string `envconfig:"CASAWORKS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CASAWORKS_DB_HOST"`
	LegacyPort     int    `envconfig:"CASAWORKS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CASAWORKS_DB_USER"`
	LegacyPassword string `envconfig:"CASAWORKS_DB_PASSWORD"`
	LegacyName     string `envconfig:"CASAWORKS_DB_NAME"`
	LegacySSLMode  string `envconfig:"CASAWORKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CASAWORKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CASAWORKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CASAWORKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CASAWORKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CASAWORKS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CASAWORKS_REDIS_ADDR"`
	Password     string        `envconfig:"CASAWORKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CASAWORKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CASAWORKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CASAWORKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CASAWORKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CASAWORKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CASAWORKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CASAWORKS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CASAWORKS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CASAWORKS_JWT_EXPIRATION_MINUTES" required:"true"`
}

type StripeConfig struct {
	APIKey string `envconfig:"CASAWORKS_STRIPE_API_KEY"`
	Secret string `envconfig:"CASAWORKS_STRIPE_SECRET"`
	Env    string `envconfig:"CASAWORKS_STRIPE_ENV" default:"test"`

	ConnectRefreshURL string `envconfig:"CASAWORKS_STRIPE_CONNECT_REFRESH_URL"`
	ConnectReturnURL  string `envconfig:"CASAWORKS_STRIPE_CONNECT_RETURN_URL"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// EscrowConfig carries the platform defaults for the deposit flow. The
// deposit and fee percentages can be overridden per-platform through the
// settings table; these values apply when no row exists.
type EscrowConfig struct {
	DepositPercent     int64 `envconfig:"CASAWORKS_ESCROW_DEPOSIT_PERCENT" default:"10"`
	PlatformFeePercent int64 `envconfig:"CASAWORKS_ESCROW_PLATFORM_FEE_PERCENT" default:"5"`
	FinalCapBps        int64 `envconfig:"CASAWORKS_ESCROW_FINAL_CAP_BPS" default:"12500"`
}

type IdempotencyConfig struct {
	WebhookTTL time.Duration `envconfig:"CASAWORKS_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type RateLimitConfig struct {
	WebhookWindow  time.Duration `envconfig:"CASAWORKS_WEBHOOK_RATE_WINDOW" default:"1m"`
	WebhookIPLimit int           `envconfig:"CASAWORKS_WEBHOOK_RATE_IP_LIMIT" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CASAWORKS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CASAWORKS_AUTO_MIGRATE" default:"false"`
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
