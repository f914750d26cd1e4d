package config

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"
)

// AppConfig holds all runtime configuration. Values are resolved from an
// optional JSON file, then overridden by environment variables.
type AppConfig struct {
	// app
	Host        string `json:"host"`
	Port        int    `json:"port"`
	BaseURL     string `json:"base_url"`
	FrontendURL string `json:"frontend_url"`
	JWTSecret   string `json:"jwt_secret"`

	// database
	DBHost     string `json:"db_host"`
	DBPort     int    `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`

	// redis
	RedisHost     string `json:"redis_host"`
	RedisPort     int    `json:"redis_port"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// oauth
	GithubClientID     string `json:"github_client_id"`
	GithubClientSecret string `json:"github_client_secret"`
	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`

	// smtp
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	SMTPFrom     string `json:"smtp_from"`

	// stripe
	StripeSecretKey     string `json:"stripe_secret_key"`
	StripeWebhookSecret string `json:"stripe_webhook_secret"`
	StripePremiumPrice  string `json:"stripe_premium_price"`

	// web push
	VAPIDPublicKey  string `json:"vapid_public_key"`
	VAPIDPrivateKey string `json:"vapid_private_key"`
	VAPIDSubject    string `json:"vapid_subject"`

	// reminder job
	ReminderCron string `json:"reminder_cron"`

	// logging
	LogLevel      string `json:"log_level"`
	LogPath       string `json:"log_path"`
	LogMaxSizeMB  int    `json:"log_max_size_mb"`
	LogMaxBackups int    `json:"log_max_backups"`
	LogMaxAgeDays int    `json:"log_max_age_days"`
	LogCompress   bool   `json:"log_compress"`
}

var (
	cfg  AppConfig
	once sync.Once
)

// Get returns the loaded configuration, loading it on first use.
func Get() AppConfig {
	once.Do(func() {
		cfg = load()
	})
	return cfg
}

func load() AppConfig {
	c := defaults()

	path := os.Getenv("SONGBIRD_CONFIG")
	if path == "" {
		path = "config.json"
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &c)
	}

	applyEnv(&c)
	return c
}

func defaults() AppConfig {
	return AppConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		BaseURL:      "http://localhost:8080",
		FrontendURL:  "http://localhost:3000",
		JWTSecret:    "songbird-dev-secret",
		DBHost:       "127.0.0.1",
		DBPort:       3306,
		DBUser:       "root",
		DBName:       "songbird",
		RedisHost:    "127.0.0.1",
		RedisPort:    6379,
		SMTPPort:     587,
		VAPIDSubject: "mailto:support@songbird.app",
		ReminderCron: "0 18 * * *",
		LogLevel:     "info",
		LogPath:      "logs/songbird.log",
	}
}

func applyEnv(c *AppConfig) {
	envStr("SONGBIRD_HOST", &c.Host)
	envInt("SONGBIRD_PORT", &c.Port)
	envStr("SONGBIRD_BASE_URL", &c.BaseURL)
	envStr("SONGBIRD_FRONTEND_URL", &c.FrontendURL)
	envStr("SONGBIRD_JWT_SECRET", &c.JWTSecret)

	envStr("SONGBIRD_DB_HOST", &c.DBHost)
	envInt("SONGBIRD_DB_PORT", &c.DBPort)
	envStr("SONGBIRD_DB_USER", &c.DBUser)
	envStr("SONGBIRD_DB_PASSWORD", &c.DBPassword)
	envStr("SONGBIRD_DB_NAME", &c.DBName)

	envStr("SONGBIRD_REDIS_HOST", &c.RedisHost)
	envInt("SONGBIRD_REDIS_PORT", &c.RedisPort)
	envStr("SONGBIRD_REDIS_PASSWORD", &c.RedisPassword)
	envInt("SONGBIRD_REDIS_DB", &c.RedisDB)

	envStr("SONGBIRD_GITHUB_CLIENT_ID", &c.GithubClientID)
	envStr("SONGBIRD_GITHUB_CLIENT_SECRET", &c.GithubClientSecret)
	envStr("SONGBIRD_GOOGLE_CLIENT_ID", &c.GoogleClientID)
	envStr("SONGBIRD_GOOGLE_CLIENT_SECRET", &c.GoogleClientSecret)

	envStr("SONGBIRD_SMTP_HOST", &c.SMTPHost)
	envInt("SONGBIRD_SMTP_PORT", &c.SMTPPort)
	envStr("SONGBIRD_SMTP_USER", &c.SMTPUser)
	envStr("SONGBIRD_SMTP_PASSWORD", &c.SMTPPassword)
	envStr("SONGBIRD_SMTP_FROM", &c.SMTPFrom)

	envStr("SONGBIRD_STRIPE_SECRET_KEY", &c.StripeSecretKey)
	envStr("SONGBIRD_STRIPE_WEBHOOK_SECRET", &c.StripeWebhookSecret)
	envStr("SONGBIRD_STRIPE_PREMIUM_PRICE", &c.StripePremiumPrice)

	envStr("SONGBIRD_VAPID_PUBLIC_KEY", &c.VAPIDPublicKey)
	envStr("SONGBIRD_VAPID_PRIVATE_KEY", &c.VAPIDPrivateKey)
	envStr("SONGBIRD_VAPID_SUBJECT", &c.VAPIDSubject)

	envStr("SONGBIRD_REMINDER_CRON", &c.ReminderCron)

	envStr("SONGBIRD_LOG_LEVEL", &c.LogLevel)
	envStr("SONGBIRD_LOG_PATH", &c.LogPath)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
