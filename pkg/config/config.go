package config

import (
	"os"
	"strings"
	"time"

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
		DBName         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
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
	Loyalty LoyaltyConfig `mapstructure:"LOYALTY"`
}

// LoyaltyConfig holds the rewards-engine tunables. Zero values fall back to
// the defaults applied in LoadConfig so a minimal config file still works.
type LoyaltyConfig struct {
	// Timezone is the reference zone used when challenge and badge
	// predicates compare hour-of-day against an order's UTC timestamp.
	Timezone          string `mapstructure:"TIMEZONE"`
	PointsPerDollar   int64  `mapstructure:"POINTS_PER_DOLLAR"`
	MaxDailyBonuses   int    `mapstructure:"MAX_DAILY_BONUSES"`
	MaxWeeklyChall    int    `mapstructure:"MAX_WEEKLY_CHALLENGES"`
	CouponValidDays   int    `mapstructure:"COUPON_VALID_DAYS"`
	LeaderboardSize   int    `mapstructure:"LEADERBOARD_SIZE"`
	LeaderboardTTLSec int    `mapstructure:"LEADERBOARD_TTL_SEC"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

func LoadConfig() *Config {
	config.SetConfigName("config")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	if err := config.ReadInConfig(); err != nil {
		zap.L().Error("failed to read config file", zap.Error(err))
		os.Exit(1)
	}

	var cfg Config
	if err := config.Unmarshal(&cfg); err != nil {
		zap.L().Error("failed to unmarshal config", zap.Error(err))
		os.Exit(1)
	}

	applyLoyaltyDefaults(&cfg.Loyalty)

	return &cfg
}

func applyLoyaltyDefaults(lc *LoyaltyConfig) {
	if lc.Timezone == "" {
		lc.Timezone = "America/New_York"
	}
	if lc.PointsPerDollar <= 0 {
		lc.PointsPerDollar = 10
	}
	if lc.MaxDailyBonuses <= 0 {
		lc.MaxDailyBonuses = 2
	}
	if lc.MaxWeeklyChall <= 0 {
		lc.MaxWeeklyChall = 3
	}
	if lc.CouponValidDays <= 0 {
		lc.CouponValidDays = 90
	}
	if lc.LeaderboardSize <= 0 {
		lc.LeaderboardSize = 10
	}
	if lc.LeaderboardTTLSec <= 0 {
		lc.LeaderboardTTLSec = 300
	}
}

// Default returns a Config carrying only the loyalty defaults. Tests use it
// instead of reading a config file.
func Default() *Config {
	var cfg Config
	applyLoyaltyDefaults(&cfg.Loyalty)
	return &cfg
}

// Location resolves the configured reference timezone.
func (lc LoyaltyConfig) Location() (*time.Location, error) {
	return time.LoadLocation(lc.Timezone)
}
