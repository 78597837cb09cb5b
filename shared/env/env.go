package env

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	Port string

	PrivyAppID           string
	PrivyVerificationKey string

	HeliusAPIKey string
	HeliusRPCURL string

	StoreBackend  string
	PageStoreFile string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DATABASE_URL string

	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string

	LOCAL_DATABASE_HOST     string
	LOCAL_DATABASE_PORT     string
	LOCAL_DATABASE_USER     string
	LOCAL_DATABASE_PASSWORD string
	LOCAL_DATABASE_NAME     string

	TelegramBotToken   string
	TelegramGroupID    int64
	SystemLogsThreadID int
)

func loadEnvVariable(key string, isRequired bool) string {
	value := os.Getenv(key)
	if isRequired && value == "" {
		log.Fatalf("FATAL: Environment variable %s is required but not set.", key)
	}
	isHidden := key == "TELEGRAM_BOT_TOKEN" || key == "HELIUS_API_KEY" || key == "PRIVY_VERIFICATION_KEY" ||
		key == "REDIS_PASSWORD" || key == "LOCAL_DATABASE_PASSWORD" || key == "PGPASSWORD" || key == "DATABASE_URL"
	if value == "" {
		if !isRequired {
			log.Printf("INFO: Environment variable %s is not set.", key)
		}
	} else if isHidden {
		log.Printf("INFO: Loaded %s (value hidden)", key)
	} else {
		log.Printf("INFO: Loaded %s = %s", key, value)
	}
	return value
}

func loadIntEnv(key string, required bool) int {
	strValue := loadEnvVariable(key, required)
	if strValue == "" {
		if !required {
			return 0
		}
		log.Fatalf("FATAL: Required integer environment variable %s is missing after load.", key)
		return 0
	}
	id, err := strconv.Atoi(strValue)
	if err != nil {
		log.Fatalf("FATAL: Failed to parse integer environment variable %s='%s': %v", key, strValue, err)
	}
	return id
}

func loadInt64Env(key string, required bool) int64 {
	strValue := loadEnvVariable(key, required)
	if strValue == "" {
		if !required {
			return 0
		}
		log.Fatalf("FATAL: Required int64 environment variable %s is missing after load.", key)
		return 0
	}
	id, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		log.Fatalf("FATAL: Failed to parse int64 environment variable %s='%s': %v", key, strValue, err)
	}
	return id
}

func LoadEnv() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("INFO: .env file not found or error loading, relying on system environment variables.")
	} else {
		log.Println("INFO: .env file loaded successfully.")
	}

	Port = loadEnvVariable("PORT", false)
	if Port == "" {
		Port = "8080"
		log.Printf("INFO: PORT not set, defaulting to %s", Port)
	}

	PrivyAppID = loadEnvVariable("PRIVY_APP_ID", true)
	PrivyVerificationKey = loadEnvVariable("PRIVY_VERIFICATION_KEY", true)

	HeliusAPIKey = loadEnvVariable("HELIUS_API_KEY", true)
	HeliusRPCURL = loadEnvVariable("HELIUS_RPC_URL", false)
	if HeliusRPCURL == "" {
		HeliusRPCURL = "https://mainnet.helius-rpc.com/?api-key=" + HeliusAPIKey
		log.Println("INFO: HELIUS_RPC_URL not set, derived it from HELIUS_API_KEY.")
	}

	StoreBackend = loadEnvVariable("STORE_BACKEND", false)
	PageStoreFile = loadEnvVariable("PAGE_STORE_FILE", false)
	if PageStoreFile == "" {
		PageStoreFile = "pages.json"
	}

	RedisAddr = loadEnvVariable("REDIS_ADDR", false)
	RedisPassword = loadEnvVariable("REDIS_PASSWORD", false)
	RedisDB = loadIntEnv("REDIS_DB", false)

	DATABASE_URL = loadEnvVariable("DATABASE_URL", false)

	PGHOST = loadEnvVariable("PGHOST", false)
	PGPORT = loadEnvVariable("PGPORT", false)
	PGUSER = loadEnvVariable("PGUSER", false)
	PGPASSWORD = loadEnvVariable("PGPASSWORD", false)
	PGDATABASE = loadEnvVariable("PGDATABASE", false)

	LOCAL_DATABASE_HOST = loadEnvVariable("LOCAL_DATABASE_HOST", false)
	LOCAL_DATABASE_PORT = loadEnvVariable("LOCAL_DATABASE_PORT", false)
	LOCAL_DATABASE_USER = loadEnvVariable("LOCAL_DATABASE_USER", false)
	LOCAL_DATABASE_PASSWORD = loadEnvVariable("LOCAL_DATABASE_PASSWORD", false)
	LOCAL_DATABASE_NAME = loadEnvVariable("LOCAL_DATABASE_NAME", false)

	TelegramBotToken = loadEnvVariable("TELEGRAM_BOT_TOKEN", false)
	TelegramGroupID = loadInt64Env("TELEGRAM_GROUP_ID", false)
	SystemLogsThreadID = loadIntEnv("SYSTEM_LOGS_THREAD_ID", false)

	if StoreBackend == "" {
		if DATABASE_URL != "" || PGHOST != "" || LOCAL_DATABASE_HOST != "" {
			StoreBackend = "postgres"
		} else if RedisAddr != "" {
			StoreBackend = "redis"
		} else {
			StoreBackend = "file"
		}
		log.Printf("INFO: STORE_BACKEND not set, defaulting to %s based on available credentials.", StoreBackend)
	}

	if TelegramBotToken != "" && TelegramGroupID == 0 {
		log.Println("WARN: TELEGRAM_BOT_TOKEN is set, but TELEGRAM_GROUP_ID is missing, invalid, or zero.")
	}
	if StoreBackend == "redis" && RedisAddr == "" {
		log.Println("WARN: STORE_BACKEND is redis but REDIS_ADDR is not set. Defaulting to localhost:6379.")
		RedisAddr = "localhost:6379"
	}

	log.Println("INFO: Environment variables loading process complete.")
	return nil
}
