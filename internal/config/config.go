package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverBadger   = "badger"
	DriverMemory   = "memory"
)

type DB struct {
	DbHOST     string
	DbPORT     string
	DbUSER     string
	DbPASSWORD string
	DbNAME     string
	DbSSLMODE  string
}

type Mongo struct {
	URI      string
	Database string
}

type Config struct {
	ServerPort          int
	StoreDriver         string
	DB                  DB
	Mongo               Mongo
	BadgerPath          string
	JWTSecretKey        string
	StoreTimeout        time.Duration
	MutationMaxAttempts int
	LogLevel            string
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}

func LoadDB() DB {
	return DB{
		DbHOST:     getEnv("DB_HOST", "localhost"),
		DbPORT:     getEnv("DB_PORT", "5432"),
		DbUSER:     getEnv("DB_USER", "postgres"),
		DbPASSWORD: getEnv("DB_PASSWORD", "password"),
		DbNAME:     getEnv("DB_NAME", "socialfeed"),
		DbSSLMODE:  getEnv("DB_SSLMODE", "disable"),
	}
}

func LoadMongo() Mongo {
	return Mongo{
		URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: getEnv("MONGO_DB", "socialapp"),
	}
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	attempts := getEnvAsInt("MUTATION_MAX_ATTEMPTS", 3)
	if attempts < 1 {
		attempts = 3
	}

	return &Config{
		ServerPort:          getEnvAsInt("SERVER_PORT", 8080),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DB:                  LoadDB(),
		Mongo:               LoadMongo(),
		BadgerPath:          getEnv("BADGER_PATH", "data/badger"),
		JWTSecretKey:        getEnv("JWT_SECRET_KEY", ""),
		StoreTimeout:        parseDuration(getEnv("STORE_TIMEOUT", "3s"), 3*time.Second),
		MutationMaxAttempts: attempts,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}
}
