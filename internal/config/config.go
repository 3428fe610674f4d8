package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"payego/internal/core/domain"
)

// Config holds all configuration for the application
type Config struct {
	AppMode string
	API     APIConfig
	Client  ClientConfig
	Sandbox  SandboxConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Limits   domain.Limits
}

// APIConfig holds the outbound REST API settings
type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// ClientConfig holds the local client behaviour
type ClientConfig struct {
	StateDir       string
	CacheTTL       time.Duration
	Debounce       time.Duration
	VerifyRedirect time.Duration
}

// SandboxConfig holds the sandbox server settings
type SandboxConfig struct {
	Port           string
	SettleSchedule string
	RateLimit      int // requests per minute per IP
	AuthRateLimit  int // auth requests per minute per IP
	BcryptCost     int
	Seed           bool // create the demo accounts at startup
}

// DatabaseConfig holds the sandbox database configuration. Driver is
// "sqlite" (DBName is a file path, empty for in-memory) or "mysql".
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration for the sandbox
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	api, err := loadAPIConfig()
	if err != nil {
		return nil, err
	}
	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode: appMode,
		API:     api,
		Client:  client,
		Sandbox:  loadSandboxConfig(),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Limits:   domain.DefaultLimits(),
	}
	if d := config.Database.Driver; d != DriverSQLite && d != DriverMySQL {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be '%s' or '%s')", d, DriverSQLite, DriverMySQL)
	}

	if path := getEnv("PAYEGO_CONFIG", ""); path != "" {
		if err := ApplyOverlay(config, path); err != nil {
			return nil, err
		}
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

func loadAPIConfig() (APIConfig, error) {
	timeout, err := getEnvInt("PAYEGO_TIMEOUT_SECONDS", 15)
	if err != nil {
		return APIConfig{}, err
	}
	retries, err := getEnvInt("PAYEGO_MAX_RETRIES", 1)
	if err != nil {
		return APIConfig{}, err
	}
	if retries < 0 {
		return APIConfig{}, fmt.Errorf("invalid PAYEGO_MAX_RETRIES: %d", retries)
	}

	return APIConfig{
		BaseURL:    strings.TrimRight(getEnv("PAYEGO_API_URL", "http://localhost:8080"), "/"),
		Timeout:    time.Duration(timeout) * time.Second,
		MaxRetries: retries,
	}, nil
}

func loadClientConfig() (ClientConfig, error) {
	ttl, err := getEnvInt("PAYEGO_CACHE_TTL_SECONDS", 30)
	if err != nil {
		return ClientConfig{}, err
	}
	debounce, err := getEnvInt("PAYEGO_DEBOUNCE_MS", 500)
	if err != nil {
		return ClientConfig{}, err
	}
	redirect, err := getEnvInt("PAYEGO_VERIFY_REDIRECT_SECONDS", 3)
	if err != nil {
		return ClientConfig{}, err
	}

	return ClientConfig{
		StateDir:       getEnv("PAYEGO_STATE_DIR", defaultStateDir()),
		CacheTTL:       time.Duration(ttl) * time.Second,
		Debounce:       time.Duration(debounce) * time.Millisecond,
		VerifyRedirect: time.Duration(redirect) * time.Second,
	}, nil
}

func loadSandboxConfig() SandboxConfig {
	rate, _ := strconv.Atoi(getEnv("RATE_LIMIT", "100"))
	authRate, _ := strconv.Atoi(getEnv("AUTH_RATE_LIMIT", "5"))
	cost, _ := strconv.Atoi(getEnv("BCRYPT_COST", "12"))

	return SandboxConfig{
		Port:           getEnv("PORT", "8080"),
		SettleSchedule: getEnv("SETTLE_SCHEDULE", "@every 5s"),
		RateLimit:      rate,
		AuthRateLimit:  authRate,
		BcryptCost:     cost,
		Seed:           getEnv("SANDBOX_SEED", "true") == "true",
	}
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Driver:   strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", DriverSQLite))),
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", ""),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", "default_secret"),
		AccessTokenMins: accessMins,
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".payego"
	}
	return filepath.Join(home, ".payego")
}

// StatePath is the durable scope file.
func (c *Config) StatePath() string {
	return filepath.Join(c.Client.StateDir, "state.json")
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: '%s' (must be an integer)", key, raw)
	}
	return v, nil
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://payego.app"
	}
	return origins
}
