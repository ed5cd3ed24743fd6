package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer   `yaml:"http_server"`
	Storage      `yaml:"storage"`
	Database     `yaml:"database"`
	URLShortener `yaml:"url_shortener"`
	ClickLog     `yaml:"click_log"`
	Telegram     `yaml:"telegram"`
	Auth         `yaml:"auth"`
	CORS         `yaml:"cors"`
	UserAgent    `yaml:"user_agent"`
}

// HTTPServer holds HTTP listener settings.
type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// Storage selects the storage backend: "postgres" or "memory".
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"shortlink"`
	Password        string `yaml:"password" env:"DB_PASSWORD" env-default:"shortlink"`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"shortlink"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
	LogQueries      bool   `yaml:"log_queries" env:"DB_LOG_QUERIES" env-default:"false"`
}

// URLShortener holds service-specific configuration.
type URLShortener struct {
	BaseURL          string        `yaml:"base_url" env:"BASE_URL"`
	AliasLength      int           `yaml:"alias_length" env:"ALIAS_LENGTH" env-default:"7"`
	MaxAliasAttempts int           `yaml:"max_alias_attempts" env:"MAX_ALIAS_ATTEMPTS" env-default:"5"`
	HistoryLimit     int           `yaml:"history_limit" env:"HISTORY_LIMIT" env-default:"50"`
	ShortenLimit     int           `yaml:"shorten_limit" env:"SHORTEN_RATE_LIMIT" env-default:"30"`
	ShortenWindow    time.Duration `yaml:"shorten_window" env:"SHORTEN_RATE_WINDOW" env-default:"24h"`
	TaskTimeout      time.Duration `yaml:"task_timeout" env:"BACKGROUND_TASK_TIMEOUT" env-default:"15s"`
}

// ClickLog holds click log retention settings.
type ClickLog struct {
	TTLDays       int           `yaml:"ttl_days" env:"CLICKLOG_TTL_DAYS" env-default:"90"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"CLICKLOG_SWEEP_INTERVAL" env-default:"1h"`
}

// TTL returns the retention window as a duration.
func (c ClickLog) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// Telegram holds click notification settings. Empty credentials disable notifications.
type Telegram struct {
	BotToken string        `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string        `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	APIURL   string        `yaml:"api_url" env:"TELEGRAM_API_URL" env-default:"https://api.telegram.org"`
	Timeout  time.Duration `yaml:"timeout" env:"TELEGRAM_TIMEOUT" env-default:"10s"`
	TimeZone string        `yaml:"timezone" env:"NOTIFY_TIMEZONE" env-default:"Asia/Ho_Chi_Minh"`
}

// Auth holds session token settings.
type Auth struct {
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"168h"`
	Issuer       string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"ShortLink-Backend"`
	CookieName   string        `yaml:"cookie_name" env:"AUTH_COOKIE_NAME" env-default:"token"`
	CookieSecure bool          `yaml:"cookie_secure" env:"AUTH_COOKIE_SECURE" env-default:"false"`
	AdminEmails  []string      `yaml:"admin_emails" env:"ADMIN_EMAILS" env-separator:","`
	BcryptCost   int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
}

// CORS holds allowed browser origins.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
}

// UserAgent points at an optional uap-core regexes.yaml; the embedded definitions are used otherwise.
type UserAgent struct {
	RegexesPath string `yaml:"regexes_path" env:"UA_REGEXES_PATH"`
}

// Load reads the configuration from CONFIG_PATH (if present) and the environment.
func Load() (*Config, error) {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml"
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", configPath, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from environment: %w", err)
		}
	}

	if cfg.URLShortener.HistoryLimit <= 0 || cfg.URLShortener.HistoryLimit > 50 {
		cfg.URLShortener.HistoryLimit = 50
	}
	if cfg.URLShortener.MaxAliasAttempts <= 0 {
		cfg.URLShortener.MaxAliasAttempts = 1
	}

	return &cfg, nil
}

// MustLoad loads the application configuration or exits.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}
