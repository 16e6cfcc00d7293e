package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	ServerPort      string
	MongoURI        string
	MongoDBName     string
	TasksCollection string
	UsersCollection string
	StoreBackend    string
	CassandraHosts  string
	CORSOrigin      string
	LogFile         string
	LogLevel        string
	CascadeTimeout  time.Duration
}

// Load reads envFile (if it exists) into the process environment and then
// builds the configuration from environment variables, applying defaults.
func Load(envFile string, logger *logrus.Logger) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && logger != nil {
			logger.Warnf("Event ID: ENV_LOAD_SKIPPED, Description: Could not load %s, using process environment: %v", envFile, err)
		}
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "assignments"),
		TasksCollection: getEnv("MONGO_TASKS_COLLECTION", "tasks"),
		UsersCollection: getEnv("MONGO_USERS_COLLECTION", "users"),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		CassandraHosts:  os.Getenv("CASS_DB"),
		CORSOrigin:      getEnv("CORS_ORIGIN", "*"),
		LogFile:         getEnv("LOG_FILE", "logs/assignments.log"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if cfg.StoreBackend != BackendMongo && cfg.StoreBackend != BackendMemory {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: expected %q or %q", cfg.StoreBackend, BackendMongo, BackendMemory)
	}

	timeout, err := time.ParseDuration(getEnv("CASCADE_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CASCADE_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid CASCADE_TIMEOUT: must be positive, got %s", timeout)
	}
	cfg.CascadeTimeout = timeout

	return cfg, nil
}

func (c *Config) Address() string {
	return fmt.Sprintf(":%s", c.ServerPort)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
