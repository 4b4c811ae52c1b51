package configs

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ListamConfig struct {
	BaseURL    string
	ContactURL string
	StartPage  int
	EndPage    int
	Delay      time.Duration
	Workers    int
}

type HTTPClientConfig struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryBase     time.Duration
	RatePerSecond int
}

type CheckerConfig struct {
	BatchSize int
	Delay     time.Duration
}

type ImagesConfig struct {
	Enabled bool
	Dir     string
}

// DBconfig хранит конфигурацию для БД
type DBconfig struct {
	URL         string
	MaxConns    int32
	AutoMigrate bool
}

type RabbitMQConfig struct {
	Enabled  bool
	URL      string
	Exchange string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

type StatusServerConfig struct {
	Port string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Listam       ListamConfig
	HTTPClient   HTTPClientConfig
	Checker      CheckerConfig
	Images       ImagesConfig
	Database     DBconfig
	RabbitMQ     RabbitMQConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
	StatusServer StatusServerConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
// .env файл не обязателен; обязательные переменные проверяются сразу.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v. Using process environment.\n", envPath, err)
	}

	cfg := &AppConfig{}
	cfg.AppName = getEnvAsString("APP_NAME", "listam-parser-service")

	if cfg.Listam.BaseURL, err = requireURL("LISTAM_BASE_URL"); err != nil {
		return nil, err
	}
	cfg.Listam.BaseURL = strings.TrimRight(cfg.Listam.BaseURL, "/")

	if cfg.Listam.StartPage, err = requireInt("START_PAGE", 1); err != nil {
		return nil, err
	}
	if cfg.Listam.EndPage, err = requireInt("END_PAGE", 1); err != nil {
		return nil, err
	}
	if cfg.Listam.EndPage < cfg.Listam.StartPage {
		return nil, fmt.Errorf("END_PAGE (%d) must not be less than START_PAGE (%d)", cfg.Listam.EndPage, cfg.Listam.StartPage)
	}

	delayMs, err := requireInt("DELAY_MS", 0)
	if err != nil {
		return nil, err
	}
	cfg.Listam.Delay = time.Duration(delayMs) * time.Millisecond

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.Database.MaxConns = int32(getEnvAsInt("DB_MAX_CONNS", 5))
	cfg.Database.AutoMigrate = getEnvAsBool("DB_AUTO_MIGRATE", true)

	cfg.Listam.ContactURL = getEnvAsString("LISTAM_CONTACT_URL", "https://www.list.am/?w=12")
	cfg.Listam.Workers = getEnvAsInt("WORKER_COUNT", 1)
	if cfg.Listam.Workers < 1 {
		cfg.Listam.Workers = 1
	}

	cfg.HTTPClient.Timeout = time.Duration(getEnvAsInt("HTTP_TIMEOUT_SEC", 30)) * time.Second
	cfg.HTTPClient.MaxRetries = getEnvAsInt("HTTP_MAX_RETRIES", 3)
	cfg.HTTPClient.RetryBase = time.Duration(getEnvAsInt("HTTP_RETRY_BASE_MS", 500)) * time.Millisecond
	cfg.HTTPClient.RatePerSecond = getEnvAsInt("HTTP_RATE_PER_SEC", 5)

	cfg.Checker.BatchSize = getEnvAsInt("CHECKER_BATCH_SIZE", 100)
	if cfg.Checker.BatchSize < 1 {
		cfg.Checker.BatchSize = 100
	}
	cfg.Checker.Delay = time.Duration(getEnvAsInt("CHECKER_DELAY_MS", 200)) * time.Millisecond

	cfg.Images.Enabled = getEnvAsBool("IMAGES_ENABLED", false)
	cfg.Images.Dir = getEnvAsString("IMAGES_DIR", "images")

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED is true")
		}
		cfg.RabbitMQ.Exchange = getEnvAsString("RABBITMQ_EXCHANGE", "parser_exchange")
	}

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")
	cfg.StatusServer.Port = getEnvAsString("STATUS_SERVER_PORT", "")

	return cfg, nil
}

func requireURL(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s environment variable is required", key)
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%s must be an absolute URL, got %q", key, value)
	}
	return value, nil
}

// requireInt читает обязательную целочисленную переменную не меньше min
func requireInt(key string, min int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return 0, fmt.Errorf("%s environment variable is required", key)
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if value < min {
		return 0, fmt.Errorf("%s must be >= %d, got %d", key, min, value)
	}
	return value, nil
}

// getEnvAsString читает переменную окружения как строку или возвращает значение по умолчанию
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}
