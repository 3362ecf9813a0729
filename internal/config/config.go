package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnginePlaywright = "playwright"
	EngineSelenium   = "selenium"
	EngineStatic     = "static"
)

type Config struct {
	Server   ServerConfig
	Browser  BrowserConfig
	Crawler  CrawlerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type BrowserConfig struct {
	Engine            string
	Headless          bool
	Timeout           time.Duration
	NavigationRetries int
	ViewportWidth     int
	ViewportHeight    int
	AcceptLanguage    string
	TimezoneID        string
	Locale            string
	UserAgent         string
	ProxyServer       string
	SeleniumURL       string
	ChromeDriverPath  string
	ChromeDriverPort  int
}

type CrawlerConfig struct {
	LandingURL    string
	CatalogPath   string
	WaitTimeout   time.Duration
	SettleDelay   time.Duration
	PacingMin     time.Duration
	PacingMax     time.Duration
	SelectorsFile string
}

type StorageConfig struct {
	WorkbookPath string
	Postgres     bool
	RedisStream  bool
	StreamName   string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, after applying an optional
// .env file from the working directory. Variables already set win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getIntOrDefault("SERVER_PORT", 8080),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Browser: BrowserConfig{
			Engine:            strings.ToLower(getEnvOrDefault("BROWSER_ENGINE", EnginePlaywright)),
			Headless:          getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:           getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			NavigationRetries: getIntOrDefault("BROWSER_NAVIGATION_RETRIES", 1),
			ViewportWidth:     getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight:    getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage:    getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-MY,en;q=0.9"),
			TimezoneID:        getEnvOrDefault("BROWSER_TIMEZONE", "Asia/Kuala_Lumpur"),
			Locale:            getEnvOrDefault("BROWSER_LOCALE", "en-MY"),
			UserAgent:         getEnvOrDefault("BROWSER_USER_AGENT", ""),
			ProxyServer:       getEnvOrDefault("BROWSER_PROXY", ""),
			SeleniumURL:       getEnvOrDefault("SELENIUM_URL", "http://localhost:4444/wd/hub"),
			ChromeDriverPath:  getEnvOrDefault("CHROMEDRIVER_PATH", ""),
			ChromeDriverPort:  getIntOrDefault("CHROMEDRIVER_PORT", 9515),
		},
		Crawler: CrawlerConfig{
			LandingURL:    getEnvOrDefault("CRAWLER_LANDING_URL", "https://www.ikea.com/my/en/"),
			CatalogPath:   getEnvOrDefault("CRAWLER_CATALOG", "ProductName.csv"),
			WaitTimeout:   getDurationOrDefault("CRAWLER_WAIT_TIMEOUT", 10*time.Second),
			SettleDelay:   getDurationOrDefault("CRAWLER_SETTLE_DELAY", 2*time.Second),
			PacingMin:     getDurationOrDefault("CRAWLER_PACING_MIN", 0),
			PacingMax:     getDurationOrDefault("CRAWLER_PACING_MAX", 0),
			SelectorsFile: getEnvOrDefault("CRAWLER_SELECTORS_FILE", ""),
		},
		Storage: StorageConfig{
			WorkbookPath: getEnvOrDefault("STORAGE_WORKBOOK", "StoreProduct.xlsx"),
			Postgres:     getBoolOrDefault("STORAGE_POSTGRES", false),
			RedisStream:  getBoolOrDefault("STORAGE_REDIS_STREAM", false),
			StreamName:   getEnvOrDefault("STORAGE_STREAM_NAME", "stream:product_records"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			Name:     getEnvOrDefault("DB_NAME", "catalog_crawler"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 4)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Browser.Engine {
	case EnginePlaywright, EngineSelenium, EngineStatic:
	default:
		return fmt.Errorf("BROWSER_ENGINE must be one of %s, %s, %s: got %q",
			EnginePlaywright, EngineSelenium, EngineStatic, c.Browser.Engine)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Crawler.LandingURL == "" {
		return fmt.Errorf("CRAWLER_LANDING_URL is required")
	}

	if c.Crawler.WaitTimeout <= 0 {
		return fmt.Errorf("CRAWLER_WAIT_TIMEOUT must be positive")
	}

	if c.Crawler.SettleDelay < 0 {
		return fmt.Errorf("CRAWLER_SETTLE_DELAY cannot be negative")
	}

	if c.Crawler.PacingMin < 0 || c.Crawler.PacingMin > c.Crawler.PacingMax {
		return fmt.Errorf("CRAWLER_PACING_MIN cannot be greater than CRAWLER_PACING_MAX")
	}

	if c.Storage.WorkbookPath == "" && !c.Storage.Postgres && !c.Storage.RedisStream {
		return fmt.Errorf("at least one storage sink must be enabled")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
