package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is the envconfig prefix applied to untagged fields.
	EnvPrefix = "robocademy"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stock        StockConfig
	Realtime     RealtimeConfig
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
	Env          string `envconfig:"ROBOCADEMY_APP_ENV" required:"true"`
	Port         string `envconfig:"ROBOCADEMY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ROBOCADEMY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROBOCADEMY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"ROBOCADEMY_DB_DSN"`

	Host     string `envconfig:"ROBOCADEMY_DB_HOST"`
	Port     int    `envconfig:"ROBOCADEMY_DB_PORT" default:"5432"`
	User     string `envconfig:"ROBOCADEMY_DB_USER"`
	Password string `envconfig:"ROBOCADEMY_DB_PASSWORD"`
	Name     string `envconfig:"ROBOCADEMY_DB_NAME"`
	SSLMode  string `envconfig:"ROBOCADEMY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ROBOCADEMY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROBOCADEMY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROBOCADEMY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROBOCADEMY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a Postgres DSN from the discrete variables when one was
// not provided directly.
func (d *DBConfig) ensureDSN() error {
	if strings.TrimSpace(d.DSN) != "" {
		return nil
	}
	if d.Host == "" || d.Name == "" {
		return fmt.Errorf("either ROBOCADEMY_DB_DSN or ROBOCADEMY_DB_HOST and ROBOCADEMY_DB_NAME are required")
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()

	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"ROBOCADEMY_REDIS_URL"`
	Address      string        `envconfig:"ROBOCADEMY_REDIS_ADDR"`
	Password     string        `envconfig:"ROBOCADEMY_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROBOCADEMY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ROBOCADEMY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROBOCADEMY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROBOCADEMY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROBOCADEMY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROBOCADEMY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ROBOCADEMY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ROBOCADEMY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ROBOCADEMY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StockConfig struct {
	// LowStockThreshold is the availableQty boundary below which a part shows
	// up in the dashboard low-stock count.
	LowStockThreshold int `envconfig:"ROBOCADEMY_STOCK_LOW_THRESHOLD" default:"10"`
}

type RealtimeConfig struct {
	StockChannel string `envconfig:"ROBOCADEMY_REALTIME_STOCK_CHANNEL" default:"stock.updates"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ROBOCADEMY_AUTO_MIGRATE" default:"false"`
}
