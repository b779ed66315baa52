package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	// HTTPAddr is where the weather/history API listens.
	HTTPAddr string
	// DashboardAddr is where the dashboard page listens.
	DashboardAddr string

	// WeatherAPIURL is the base URL the dashboard uses for /api/weather and /api/history.
	WeatherAPIURL     string
	HTTPClientTimeout time.Duration

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLiteLogSQL          bool

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherRPS     float64
	OpenWeatherBurst   int

	WeatherCacheTTL time.Duration
	HistoryLimit    int

	// MQTTBroker empty disables search event publishing.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	httpClientTimeout, err := parseDuration("HTTP_CLIENT_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	if httpClientTimeout < 0 {
		return Config{}, fmt.Errorf("HTTP_CLIENT_TIMEOUT must not be negative, got %v", httpClientTimeout)
	}

	maxOpenConns, err := parseInt("DB_MAX_OPEN_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := parseInt("DB_MAX_IDLE_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := parseDuration("DB_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Config{}, err
	}
	logSQL, err := parseBool("DB_LOG_SQL", "false")
	if err != nil {
		return Config{}, err
	}

	owmRPSStr := envOr("OPENWEATHER_RPS", "1")
	owmRPS, err := strconv.ParseFloat(owmRPSStr, 64)
	if err != nil {
		return Config{}, fmt.Errorf("invalid OPENWEATHER_RPS %q: %w", owmRPSStr, err)
	}
	if owmRPS <= 0 {
		return Config{}, fmt.Errorf("OPENWEATHER_RPS must be positive, got %v", owmRPS)
	}
	owmBurst, err := parseInt("OPENWEATHER_BURST", "5")
	if err != nil {
		return Config{}, err
	}
	if owmBurst < 1 {
		return Config{}, fmt.Errorf("OPENWEATHER_BURST must be at least 1, got %d", owmBurst)
	}

	cacheTTL, err := parseDuration("WEATHER_CACHE_TTL", "30m")
	if err != nil {
		return Config{}, err
	}
	historyLimit, err := parseInt("HISTORY_LIMIT", "10")
	if err != nil {
		return Config{}, err
	}
	if historyLimit < 1 {
		return Config{}, fmt.Errorf("HISTORY_LIMIT must be at least 1, got %d", historyLimit)
	}

	mqttPort, err := parseInt("MQTT_PORT", "1883")
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              envOr("HTTP_ADDR", ":8000"),
		DashboardAddr:         envOr("DASHBOARD_ADDR", ":3000"),
		WeatherAPIURL:         envOr("WEATHER_API_URL", "http://localhost:8000"),
		HTTPClientTimeout:     httpClientTimeout,
		SQLiteDriver:          envOr("DB_DRIVER", "sqlite3"),
		SQLiteDSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		SQLitePath:            envOr("SQLITE_PATH", "dev/sqlite/weatherdash.db"),
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteLogSQL:          logSQL,
		OpenWeatherAPIKey:     strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY")),
		OpenWeatherBaseURL:    envOr("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		OpenWeatherRPS:        owmRPS,
		OpenWeatherBurst:      owmBurst,
		WeatherCacheTTL:       cacheTTL,
		HistoryLimit:          historyLimit,
		MQTTBroker:            strings.TrimSpace(os.Getenv("MQTT_BROKER")),
		MQTTPort:              mqttPort,
		MQTTClientID:          envOr("MQTT_CLIENT_ID", "weatherdash-server"),
		MQTTTopic:             envOr("MQTT_TOPIC", "weatherdash/searches"),
	}, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseInt(key, def string) (int, error) {
	s := envOr(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOr(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func parseBool(key, def string) (bool, error) {
	s := envOr(key, def)
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
