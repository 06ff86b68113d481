package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all static application configuration. Everything that can be
// changed while the bot is running lives in Settings instead.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Telegram TelegramConfig
	Tron     TronConfig
	App      AppConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// TelegramConfig holds the notification bot settings
type TelegramConfig struct {
	BotToken       string
	OperatorChatID int64
}

// TronConfig holds the chain gateway and house wallet settings
type TronConfig struct {
	NodeURL         string
	HouseAddress    string
	HousePrivateKey string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Env          string
	JWTSecret    string
	APISecret    string
	SettingsPath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "trxbetbot"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Telegram: TelegramConfig{
			BotToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
			OperatorChatID: getEnvInt64("TELEGRAM_OPERATOR_CHAT_ID", 0),
		},
		Tron: TronConfig{
			NodeURL:         getEnv("TRON_NODE_URL", "https://api.trongrid.io"),
			HouseAddress:    getEnv("TRON_HOUSE_ADDRESS", ""),
			HousePrivateKey: getEnv("TRON_HOUSE_PRIVATE_KEY", ""),
		},
		App: AppConfig{
			Env:          getEnv("ENV", "local"),
			JWTSecret:    getEnv("JWT_SECRET", ""),
			APISecret:    getEnv("BOT_API_SECRET", ""),
			SettingsPath: getEnv("SETTINGS_PATH", ""),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.App.APISecret == "" {
		return nil, fmt.Errorf("BOT_API_SECRET is required")
	}

	if config.Tron.HouseAddress == "" || config.Tron.HousePrivateKey == "" {
		return nil, fmt.Errorf("house wallet credentials are required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
