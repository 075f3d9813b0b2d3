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
	Bidding      BiddingConfig
	BidRateLimit BidRateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Fanout       FanoutConfig
	Relay        RelayConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LANDHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"LANDHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LANDHUB_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LANDHUB_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LANDHUB_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for browser clients.
	CORSOrigins []string `envconfig:"LANDHUB_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LANDHUB_DB_DSN"`
	Driver string `envconfig:"LANDHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LANDHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"LANDHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LANDHUB_DB_USER"`
	LegacyPassword string `envconfig:"LANDHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"LANDHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"LANDHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LANDHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LANDHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LANDHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LANDHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery is the duration above which a statement is logged as a warning.
	SlowQuery time.Duration `envconfig:"LANDHUB_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LANDHUB_REDIS_URL"`
	Address      string        `envconfig:"LANDHUB_REDIS_ADDR"`
	Password     string        `envconfig:"LANDHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"LANDHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LANDHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LANDHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LANDHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LANDHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LANDHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LANDHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LANDHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LANDHUB_JWT_EXPIRATION_MINUTES" default:"60" validate:"gt=0"`
}

// BiddingConfig carries the ledger-wide defaults applied to listings.
type BiddingConfig struct {
	DefaultMinIncrement int64 `envconfig:"LANDHUB_BID_DEFAULT_MIN_INCREMENT" default:"10000" validate:"gt=0"`
	MaxCASRetries       int   `envconfig:"LANDHUB_BID_MAX_CAS_RETRIES" default:"3" validate:"gte=0"`
}

type BidRateLimitConfig struct {
	Window time.Duration `envconfig:"LANDHUB_BID_RATE_LIMIT_WINDOW" default:"1m" validate:"gt=0"`
	Limit  int           `envconfig:"LANDHUB_BID_RATE_LIMIT" default:"30" validate:"gt=0"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LANDHUB_AUTO_MIGRATE" default:"false"`
	Realtime    bool `envconfig:"LANDHUB_FEATURE_REALTIME" default:"true"`
}

// FanoutConfig sizes the in-process notification dispatcher.
type FanoutConfig struct {
	QueueSize      int           `envconfig:"LANDHUB_FANOUT_QUEUE_SIZE" default:"1024" validate:"gt=0"`
	Workers        int           `envconfig:"LANDHUB_FANOUT_WORKERS" default:"4" validate:"gt=0,lte=64"`
	DeliverTimeout time.Duration `envconfig:"LANDHUB_FANOUT_DELIVER_TIMEOUT" default:"5s" validate:"gt=0"`
	ChannelPrefix  string        `envconfig:"LANDHUB_FANOUT_CHANNEL_PREFIX" default:"lh:notifications"`
}

type RelayConfig struct {
	BatchSize      int `envconfig:"LANDHUB_RELAY_BATCH_SIZE" default:"50" validate:"gt=0,lte=1000"`
	PollIntervalMS int `envconfig:"LANDHUB_RELAY_POLL_MS" default:"500" validate:"gt=0"`
	MaxAttempts    int `envconfig:"LANDHUB_RELAY_MAX_ATTEMPTS" default:"10" validate:"gt=0"`
}

// MaintenanceConfig schedules the housekeeping worker.
type MaintenanceConfig struct {
	Interval                  time.Duration `envconfig:"LANDHUB_MAINTENANCE_INTERVAL" default:"1h" validate:"gte=1m"`
	OutboxRetentionDays       int           `envconfig:"LANDHUB_OUTBOX_RETENTION_DAYS" default:"30" validate:"gt=0"`
	NotificationRetentionDays int           `envconfig:"LANDHUB_NOTIFICATION_RETENTION_DAYS" default:"90" validate:"gt=0"`
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
