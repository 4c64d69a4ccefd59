package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig leaves Addr empty to run without Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Driver string
}

type SecurityConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

// LedgerConfig holds the screen-time policy constants.
type LedgerConfig struct {
	DefaultAllowedMinutes int
	RewardMinutes         int
	MinimumAllowedMinutes int
	Timezone              string
}

type RateLimitConfig struct {
	LoginAttempts int
	LoginWindow   time.Duration
}

type JobsConfig struct {
	Enabled        bool
	OverBudgetCron string
}

type WorkerConfig struct {
	Stream        string
	Group         string
	Consumer      string
	BlockTimeout  time.Duration
	ClaimInterval time.Duration
	ClaimIdle     time.Duration
}

type TelemetryConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Ledger           LedgerConfig
	RateLimit        RateLimitConfig
	Jobs             JobsConfig
	Worker           WorkerConfig
	Telemetry        TelemetryConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("KINGDOMKIDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the services cannot start with.
func (c *AppConfig) Validate() error {
	if c.Security.JWTSecret == "" {
		return errors.New("config: security.jwtsecret is required")
	}
	if c.Security.TokenTTL <= 0 {
		return errors.New("config: security.tokenttl must be positive")
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: postgres.dsn is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Ledger.RewardMinutes <= 0 {
		return errors.New("config: ledger.rewardminutes must be positive")
	}
	if c.Ledger.MinimumAllowedMinutes < 0 {
		return errors.New("config: ledger.minimumallowedminutes must not be negative")
	}
	if c.Ledger.DefaultAllowedMinutes < c.Ledger.MinimumAllowedMinutes {
		return errors.New("config: ledger.defaultallowedminutes is below the minimum")
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		return fmt.Errorf("config: ledger.timezone: %w", err)
	}
	return c.Worker.validate()
}

func (w WorkerConfig) validate() error {
	if w.Stream == "" || w.Group == "" || w.Consumer == "" {
		return errors.New("config: worker.stream, worker.group and worker.consumer are required")
	}
	if w.BlockTimeout <= 0 {
		return errors.New("config: worker.blocktimeout must be positive")
	}
	if w.ClaimInterval <= 0 {
		return errors.New("config: worker.claiminterval must be positive")
	}
	if w.ClaimIdle <= 0 {
		return errors.New("config: worker.claimidle must be positive")
	}
	return nil
}

// Location returns the zone ledger days are computed in.
func (c LedgerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.automigrate", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.driver", StorageDriverPostgres)

	v.SetDefault("security.jwtsecret", "")
	v.SetDefault("security.tokenttl", "1h")
	v.SetDefault("security.issuer", "kingdomkids")

	v.SetDefault("ledger.defaultallowedminutes", 120)
	v.SetDefault("ledger.rewardminutes", 15)
	v.SetDefault("ledger.minimumallowedminutes", 15)
	v.SetDefault("ledger.timezone", "UTC")

	v.SetDefault("ratelimit.loginattempts", 5)
	v.SetDefault("ratelimit.loginwindow", "15m")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.overbudgetcron", "0 5 0 * * *")

	v.SetDefault("worker.stream", "ledger:events")
	v.SetDefault("worker.group", "alerts")
	v.SetDefault("worker.consumer", "worker-1")
	v.SetDefault("worker.blocktimeout", "5s")
	v.SetDefault("worker.claiminterval", "30s")
	v.SetDefault("worker.claimidle", "1m")

	v.SetDefault("telemetry.servicename", "kingdomkids-api")
	v.SetDefault("telemetry.otlpendpoint", "")

	v.SetDefault("allowcorsorigins", []string{})
}
