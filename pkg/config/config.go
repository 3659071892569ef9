package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Ledger       LedgerConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	} else if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs error
	if c.Ledger.StoreTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvLedgerStoreTimeout))
	}
	if c.Ledger.MaxAttempts < 1 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be at least 1", EnvLedgerMaxAttempts))
	}
	if c.Ledger.RetryBackoff <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvLedgerRetryBackoff))
	}
	if c.Redis.IdempotencyTTL <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvRedisIdempotencyTTL))
	}
	if c.HTTP.RateLimitRequests < 1 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be at least 1", EnvHTTPRateLimitRequests))
	}
	if c.HTTP.RateLimitWindow <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvHTTPRateLimitWindow))
	}
	if c.JWT.ExpirationMinutes <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvJWTExpMins))
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"CREDITPOOL_APP_ENV" required:"true"`
	Port         string `envconfig:"CREDITPOOL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CREDITPOOL_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CREDITPOOL_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CREDITPOOL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ConsoleLogs reports whether logs should use the human-readable writer.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(a.LogFormat, "console")
}

// HTTPConfig covers the API server and its edge middleware.
type HTTPConfig struct {
	CORSOrigins       []string      `envconfig:"CREDITPOOL_HTTP_CORS_ORIGINS" default:"http://localhost:3000"`
	ReadTimeout       time.Duration `envconfig:"CREDITPOOL_HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `envconfig:"CREDITPOOL_HTTP_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout   time.Duration `envconfig:"CREDITPOOL_HTTP_SHUTDOWN_TIMEOUT" default:"20s"`
	RateLimitRequests int           `envconfig:"CREDITPOOL_HTTP_RATE_LIMIT_REQUESTS" default:"120"`
	RateLimitWindow   time.Duration `envconfig:"CREDITPOOL_HTTP_RATE_LIMIT_WINDOW" default:"1m"`
}

type DBConfig struct {
	DSN    string `envconfig:"CREDITPOOL_DB_DSN"`
	Driver string `envconfig:"CREDITPOOL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CREDITPOOL_DB_HOST"`
	LegacyPort     int    `envconfig:"CREDITPOOL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CREDITPOOL_DB_USER"`
	LegacyPassword string `envconfig:"CREDITPOOL_DB_PASSWORD"`
	LegacyName     string `envconfig:"CREDITPOOL_DB_NAME"`
	LegacySSLMode  string `envconfig:"CREDITPOOL_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"CREDITPOOL_SQLITE_PATH" default:"file:creditpool.db?cache=shared"`

	MaxOpenConns    int           `envconfig:"CREDITPOOL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CREDITPOOL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CREDITPOOL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CREDITPOOL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"CREDITPOOL_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL            string        `envconfig:"CREDITPOOL_REDIS_URL"`
	Address        string        `envconfig:"CREDITPOOL_REDIS_ADDR"`
	Password       string        `envconfig:"CREDITPOOL_REDIS_PASSWORD"`
	DB             int           `envconfig:"CREDITPOOL_REDIS_DB" default:"0"`
	PoolSize       int           `envconfig:"CREDITPOOL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"CREDITPOOL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"CREDITPOOL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"CREDITPOOL_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout   time.Duration `envconfig:"CREDITPOOL_REDIS_WRITE_TIMEOUT" default:"3s"`
	IdempotencyTTL time.Duration `envconfig:"CREDITPOOL_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CREDITPOOL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CREDITPOOL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CREDITPOOL_JWT_EXPIRATION_MINUTES" default:"60"`
}

// LedgerConfig bounds how long and how often the engine talks to the store.
type LedgerConfig struct {
	StoreTimeout         time.Duration `envconfig:"CREDITPOOL_LEDGER_STORE_TIMEOUT" default:"3s"`
	MaxAttempts          int           `envconfig:"CREDITPOOL_LEDGER_MAX_ATTEMPTS" default:"3"`
	RetryBackoff         time.Duration `envconfig:"CREDITPOOL_LEDGER_RETRY_BACKOFF" default:"25ms"`
	DefaultDepositMethod string        `envconfig:"CREDITPOOL_LEDGER_DEFAULT_DEPOSIT_METHOD" default:"card"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CREDITPOOL_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"CREDITPOOL_CRON_LOCK_TTL" default:"50s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CREDITPOOL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CREDITPOOL_AUTO_MIGRATE" default:"false"`
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
