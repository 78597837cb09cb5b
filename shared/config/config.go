package config

import (
	"log"
	"sync"

	"github.com/spf13/viper"
)

// TelegramConfig defines the structure for Telegram-related configurations
type TelegramConfig struct {
	BotToken           string `mapstructure:"bot_token"`
	GroupID            int64  `mapstructure:"group_id"`
	SystemLogsThreadID int    `mapstructure:"system_logs_thread_id"`
}

// Config defines the global configuration structure
type Config struct {
	App struct {
		Port        string `mapstructure:"port"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"app"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`

	Store struct {
		Backend string `mapstructure:"backend"`
		File    string `mapstructure:"file"`
	} `mapstructure:"store"`

	Access struct {
		OptimisticLocking bool `mapstructure:"optimistic_locking"`
	} `mapstructure:"access"`

	Oracle struct {
		MaxRetries     int `mapstructure:"max_retries"`
		TimeoutSeconds int `mapstructure:"timeout_seconds"`
	} `mapstructure:"oracle"`

	RateLimit struct {
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
		Burst             int     `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`

	Telegram TelegramConfig `mapstructure:"telegram"`
}

var (
	globalConfig *Config
	configLock   sync.RWMutex
)

// LoadConfig loads configuration from the specified file path and merges it with environment variables
func LoadConfig(path string) (*Config, error) {
	log.Printf("Starting to load configuration from file: %s", path)

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.BindEnv("app.port", "PORT")
	viper.BindEnv("app.environment", "ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("store.backend", "STORE_BACKEND")
	viper.BindEnv("store.file", "PAGE_STORE_FILE")
	viper.BindEnv("access.optimistic_locking", "OPTIMISTIC_LOCKING")
	viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	viper.BindEnv("telegram.group_id", "TELEGRAM_GROUP_ID")
	viper.BindEnv("telegram.system_logs_thread_id", "SYSTEM_LOGS_THREAD_ID")

	viper.SetDefault("oracle.max_retries", 3)
	viper.SetDefault("oracle.timeout_seconds", 15)
	viper.SetDefault("rate_limit.requests_per_second", 5)
	viper.SetDefault("rate_limit.burst", 10)

	var cfg Config

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		log.Printf("Error unmarshalling configuration: %v", err)
		return nil, err
	}

	log.Printf("Loaded configuration from file: %s", path)
	return &cfg, nil
}

// SetGlobalConfig sets the loaded configuration globally
func SetGlobalConfig(cfg *Config) {
	configLock.Lock()
	defer configLock.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig retrieves the globally set configuration
func GetGlobalConfig() *Config {
	configLock.RLock()
	defer configLock.RUnlock()
	if globalConfig == nil {
		log.Println("GetGlobalConfig: Global configuration is nil.")
	}
	return globalConfig
}
