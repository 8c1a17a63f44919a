package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Models    ModelsConfig
	MQTT      MQTTConfig
	Retention RetentionConfig
	Export    ExportConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	// Timeout bounds every single store operation.
	Timeout time.Duration
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
	// Required turns on operator-only guards for mutating history endpoints.
	Required bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins string
}

type ModelsConfig struct {
	Dir           string
	DefaultModel  string
	Remote        map[string]string
	RemoteTimeout time.Duration
}

type MQTTConfig struct {
	URL          string
	OutcomeTopic string
}

type RetentionConfig struct {
	Days     int
	Interval time.Duration
}

type ExportConfig struct {
	Dir string
}

type LogConfig struct {
	Level  string
	Format string
}

type RateLimitConfig struct {
	RPS   int
	Burst int
}

func LoadConfig() (*Config, error) {
	ints := map[string]int{
		"SERVER_PORT":              8080,
		"SHUTDOWN_TIMEOUT_SEC":     10,
		"DB_PORT":                  5432,
		"DB_MAX_CONNS":             10,
		"DB_TIMEOUT_MS":            5000,
		"JWT_EXPIRY_HOURS":         24,
		"REDIS_PORT":               6379,
		"REDIS_DB":                 0,
		"REMOTE_MODEL_TIMEOUT_MS":  2000,
		"RETENTION_DAYS":           0,
		"RETENTION_INTERVAL_MIN":   60,
		"PREDICT_RATE_LIMIT_RPS":   0,
		"PREDICT_RATE_LIMIT_BURST": 20,
	}
	for key, fallback := range ints {
		v, err := getIntEnv(key, fallback)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		ints[key] = v
	}

	remote, err := parseRemoteModels(getEnv("REMOTE_MODELS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid REMOTE_MODELS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            ints["SERVER_PORT"],
			ShutdownTimeout: time.Duration(ints["SHUTDOWN_TIMEOUT_SEC"]) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     ints["DB_PORT"],
			User:     getEnv("DB_USER", "transit"),
			Password: getEnv("DB_PASSWORD", "transit_dev_password"),
			Name:     getEnv("DB_NAME", "transit"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(ints["DB_MAX_CONNS"]),
			Timeout:  time.Duration(ints["DB_TIMEOUT_MS"]) * time.Millisecond,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpiryHours: ints["JWT_EXPIRY_HOURS"],
			Required:    getBoolEnv("AUTH_REQUIRED", false),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     ints["REDIS_PORT"],
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       ints["REDIS_DB"],
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Models: ModelsConfig{
			Dir:           getEnv("MODELS_DIR", "./artifacts"),
			DefaultModel:  getEnv("DEFAULT_MODEL", ""),
			Remote:        remote,
			RemoteTimeout: time.Duration(ints["REMOTE_MODEL_TIMEOUT_MS"]) * time.Millisecond,
		},
		MQTT: MQTTConfig{
			URL:          getEnv("MQTT_URL", ""),
			OutcomeTopic: getEnv("MQTT_OUTCOME_TOPIC", "transit/outcomes/+"),
		},
		Retention: RetentionConfig{
			Days:     ints["RETENTION_DAYS"],
			Interval: time.Duration(ints["RETENTION_INTERVAL_MIN"]) * time.Minute,
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "./exports"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			RPS:   ints["PREDICT_RATE_LIMIT_RPS"],
			Burst: ints["PREDICT_RATE_LIMIT_BURST"],
		},
	}

	return cfg, nil
}

// parseRemoteModels reads "name=url,name2=url2".
func parseRemoteModels(raw string) (map[string]string, error) {
	out := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("expected name=url, got %q", pair)
		}
		out[name] = url
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getBoolEnv(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
