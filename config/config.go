package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	R2       R2Config
	Sync     SyncConfig
	Log      LogConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
	GatewayToken   string
}

type DatabaseConfig struct {
	DSN string
}

type RedisConfig struct {
	Address        string
	Password       string
	SeriesCacheTTL time.Duration
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// R2Config points at a Cloudflare R2 bucket. An empty Bucket means uploads go
// to the local uploads directory instead.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

type SyncConfig struct {
	ServiceURL   string
	ServiceToken string
	Interval     time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type NotifyConfig struct {
	Timeout time.Duration
}

var bindings = map[string]string{
	"server.port":           "PORT",
	"server.allowedorigins": "ALLOWED_ORIGINS",
	"server.gatewaytoken":   "GATEWAY_TOKEN",
	"database.dsn":          "DATABASE_URL",
	"redis.address":         "REDIS_ADDR",
	"redis.password":        "REDIS_PASSWORD",
	"redis.seriescachettl":  "SERIES_CACHE_TTL",
	"nats.url":              "NATS_URL",
	"nats.subjectprefix":    "NATS_SUBJECT_PREFIX",
	"r2.accountid":          "CLOUDFLARE_ACCOUNT_ID",
	"r2.accesskeyid":        "R2_ACCESS_KEY_ID",
	"r2.accesskeysecret":    "R2_ACCESS_KEY_SECRET",
	"r2.bucket":             "R2_BUCKET_NAME",
	"r2.cdnbaseurl":         "CDN_BASE_URL",
	"sync.serviceurl":       "SYNC_SERVICE_URL",
	"sync.servicetoken":     "SYNC_SERVICE_TOKEN",
	"sync.interval":         "SYNC_INTERVAL",
	"log.level":             "LOG_LEVEL",
	"log.format":            "LOG_FORMAT",
	"notify.timeout":        "NOTIFY_TIMEOUT",
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("server.port", 5200)
	v.SetDefault("server.allowedorigins", "http://localhost:3000")
	v.SetDefault("redis.seriescachettl", time.Minute)
	v.SetDefault("nats.subjectprefix", "chessfam.notifications")
	v.SetDefault("sync.interval", time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("notify.timeout", 5*time.Second)

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("server.port"),
			AllowedOrigins: splitList(v.GetString("server.allowedorigins")),
			GatewayToken:   v.GetString("server.gatewaytoken"),
		},
		Database: DatabaseConfig{DSN: v.GetString("database.dsn")},
		Redis: RedisConfig{
			Address:        v.GetString("redis.address"),
			Password:       v.GetString("redis.password"),
			SeriesCacheTTL: v.GetDuration("redis.seriescachettl"),
		},
		NATS: NATSConfig{
			URL:           v.GetString("nats.url"),
			SubjectPrefix: v.GetString("nats.subjectprefix"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.accountid"),
			AccessKeyID:     v.GetString("r2.accesskeyid"),
			AccessKeySecret: v.GetString("r2.accesskeysecret"),
			Bucket:          v.GetString("r2.bucket"),
			CDNBaseURL:      v.GetString("r2.cdnbaseurl"),
		},
		Sync: SyncConfig{
			ServiceURL:   v.GetString("sync.serviceurl"),
			ServiceToken: v.GetString("sync.servicetoken"),
			Interval:     v.GetDuration("sync.interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Notify: NotifyConfig{Timeout: v.GetDuration("notify.timeout")},
	}

	return cfg, nil
}

// Validate checks the settings the serve command cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("DATABASE_URL environment variable not set"))
	}
	if c.Server.GatewayToken == "" {
		errs = append(errs, errors.New("GATEWAY_TOKEN environment variable not set"))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
