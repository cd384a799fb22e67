package config

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"entitlement-controlplane/pkg/hashistack/secretmanager"

	"github.com/hashicorp/vault-client-go"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var config = viper.New()

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Otel struct {
		Addr     string `mapstructure:"ADDR"`
		Insecure bool   `mapstructure:"INSECURE"`
		URLPath  string `mapstructure:"URL_PATH"`
	} `mapstructure:"OTEL"`
	Pyroscope struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		Metrics        bool   `mapstructure:"METRICS"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Flagsmith struct {
		Addr   string `mapstructure:"ADDR"`
		ApiKey string `mapstructure:"API_KEY"`
	} `mapstructure:"FLAGSMITH"`
	Licensing Licensing `mapstructure:"LICENSING"`
}

// Licensing holds the entitlement policy knobs.
type Licensing struct {
	KeyPrefix          string `mapstructure:"KEY_PREFIX"`
	TrialDays          int    `mapstructure:"TRIAL_DAYS"`
	GraceDays          int    `mapstructure:"GRACE_DAYS"`
	ReminderThresholds []int  `mapstructure:"REMINDER_THRESHOLDS"`
	ReminderWindowDays int    `mapstructure:"REMINDER_WINDOW_DAYS"`
	ScanHour           int    `mapstructure:"SCAN_HOUR"`
	ScanConcurrency    int    `mapstructure:"SCAN_CONCURRENCY"`
}

func (l Licensing) TrialPeriod() time.Duration {
	return time.Duration(l.TrialDays) * 24 * time.Hour
}

func (l Licensing) GracePeriod() time.Duration {
	return time.Duration(l.GraceDays) * 24 * time.Hour
}

func (l Licensing) ReminderWindow() time.Duration {
	return time.Duration(l.ReminderWindowDays) * 24 * time.Hour
}

// DefaultLicensing mirrors the production policy: 3 day trial, 7 day grace,
// reminders at 7/3/1/0 days inside a 30 day window.
func DefaultLicensing() Licensing {
	return Licensing{
		KeyPrefix:          "OWLTD",
		TrialDays:          3,
		GraceDays:          7,
		ReminderThresholds: []int{7, 3, 1, 0},
		ReminderWindowDays: 30,
		ScanHour:           1,
		ScanConcurrency:    8,
	}
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

type Params struct {
	fx.In
	Vault *vault.Client `optional:"true"`
}

func setDefaults(v *viper.Viper) {
	l := DefaultLicensing()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "entitlement-controlplane")
	v.SetDefault("HTTP_SERVER.ADDR", "8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.SSLMODE", "disable")
	v.SetDefault("DATABASE.TIMEZONE", "UTC")
	v.SetDefault("DATABASE.METRICS", false)
	v.SetDefault("REDIS.ADDR", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("FLAGSMITH.ADDR", "")
	v.SetDefault("FLAGSMITH.API_KEY", "")
	v.SetDefault("OTEL.ADDR", "")
	v.SetDefault("OTEL.INSECURE", true)
	v.SetDefault("OTEL.URL_PATH", "")
	v.SetDefault("PYROSCOPE.ADDR", "")
	v.SetDefault("LICENSING.KEY_PREFIX", l.KeyPrefix)
	v.SetDefault("LICENSING.TRIAL_DAYS", l.TrialDays)
	v.SetDefault("LICENSING.GRACE_DAYS", l.GraceDays)
	v.SetDefault("LICENSING.REMINDER_THRESHOLDS", l.ReminderThresholds)
	v.SetDefault("LICENSING.REMINDER_WINDOW_DAYS", l.ReminderWindowDays)
	v.SetDefault("LICENSING.SCAN_HOUR", l.ScanHour)
	v.SetDefault("LICENSING.SCAN_CONCURRENCY", l.ScanConcurrency)
}

func LoadConfig(p Params) *Config {
	config.SetConfigName("config")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()
	setDefaults(config)

	if err := config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			zap.L().Error("failed to read config file", zap.Error(err))
			os.Exit(1)
		}
		zap.L().Warn("config.yaml not found, using defaults and environment")
	}

	var cfg Config
	if err := config.Unmarshal(&cfg); err != nil {
		zap.L().Error("failed to unmarshal config", zap.Error(err))
		os.Exit(1)
	}

	if p.Vault != nil {
		secrets, err := secretmanager.ReadKV(context.Background(), p.Vault, cfg.AppEnv)
		if err != nil {
			zap.L().Error("failed to read secrets from vault", zap.String("path", cfg.AppEnv), zap.Error(err))
			os.Exit(1)
		}
		applySecrets(&cfg, secrets)
		zap.L().Info("secrets loaded from vault", zap.String("path", cfg.AppEnv), zap.Int("keys", len(secrets)))
	}

	return &cfg
}

// applySecrets overlays Vault values; keys absent from Vault keep the value
// from file or environment.
func applySecrets(cfg *Config, secrets map[string]string) {
	set := func(dst *string, key string) {
		if v, ok := secrets[key]; ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.Database.User, "postgres_user")
	set(&cfg.Database.Password, "postgres_password")
	set(&cfg.Redis.Password, "redis_password")
	set(&cfg.Flagsmith.ApiKey, "flagsmith_api_key")
}
