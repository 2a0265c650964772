package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode       string
	Port          string
	ServiceDomain string
	SiteURL       string
	Store         StoreConfig
	JWT           JWTConfig
	Reset         ResetConfig
	Cookie        CookieConfig
	Mail          MailConfig
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	Driver   string // "mysql" or "memory"
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenSecs  int
	AppTokenDays     int
	RefreshTokenDays int
}

// AccessTTL returns the user access token lifetime
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTokenSecs) * time.Second
}

// AppTTL returns the app access token lifetime
func (j JWTConfig) AppTTL() time.Duration {
	return time.Duration(j.AppTokenDays) * 24 * time.Hour
}

// RefreshTTL returns the refresh token lifetime
func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

// ResetConfig holds password-reset configuration
type ResetConfig struct {
	ValidityDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// MailConfig selects and configures the mail agent
type MailConfig struct {
	Agent  string // "smtp" or "file"
	Host   string
	Port   string
	From   string
	OutDir string // file agent output directory
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:       appMode,
		Port:          getEnv("PORT", "8000"),
		ServiceDomain: getEnv("SERVICE_DOMAIN", "authgate.local"),
		SiteURL:       getEnv("SITE_URL", "http://localhost:8000"),
		Store:         loadStoreConfig(appMode),
		JWT:           loadJWTConfig(appMode),
		Reset:         loadResetConfig(),
		Cookie:        loadCookieConfig(appMode),
		Mail:          loadMailConfig(appMode),
	}

	log.Printf("Configuration loaded [MODE: %s, STORE: %s]", appMode, config.Store.Driver)
	return config, nil
}

// loadStoreConfig loads persistence config based on mode
func loadStoreConfig(mode string) StoreConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return StoreConfig{
		Driver:   getEnv("STORE_DRIVER", "mysql"),
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "authgate"),
	}
}

// loadJWTConfig loads token config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessSecs, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_SECONDS", "30"))
	appDays, _ := strconv.Atoi(getEnv("APP_TOKEN_DAYS", "30"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenSecs:  accessSecs,
		AppTokenDays:     appDays,
		RefreshTokenDays: refreshDays,
	}
}

// loadResetConfig loads password-reset config
func loadResetConfig() ResetConfig {
	validityDays, _ := strconv.Atoi(getEnv("RESET_VALIDITY_DAYS", "1"))
	return ResetConfig{ValidityDays: validityDays}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadMailConfig loads mail agent config based on mode
func loadMailConfig(mode string) MailConfig {
	defaultAgent := "file"
	if mode == "prod" {
		defaultAgent = "smtp"
	}

	return MailConfig{
		Agent:  getEnv("MAIL_AGENT", defaultAgent),
		Host:   getEnv("MAIL_HOST", "localhost"),
		Port:   getEnv("MAIL_PORT", "25"),
		From:   getEnv("MAIL_FROM", "noreply@authgate.local"),
		OutDir: getEnv("MAIL_OUT_DIR", "./mailout"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
	if origins == "" && c.IsDev() {
		return "*"
	}
	return origins
}
