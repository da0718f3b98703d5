package config

import (
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	BcryptCost            int    `mapstructure:"BCRYPT_COST"`
	SignInRatePerMin      int    `mapstructure:"SIGNIN_RATE_PER_MIN"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDBName           string `mapstructure:"MONGO_DB_NAME"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm          string `mapstructure:"JWT_ALGORITHM"`
	AccessTokenMinutes    int    `mapstructure:"ACCESS_TOKEN_MINUTES"`
	WSMaxSessionSec       int    `mapstructure:"WS_MAX_SESSION_SEC"`
	WSOutboxBuffer        int    `mapstructure:"WS_OUTBOX_BUFFER"`
	RouteMetricsEnabled   bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`

	// SearchMinQueryLen is the only place the minimum search length is defined.
	SearchMinQueryLen        int `mapstructure:"SEARCH_MIN_QUERY_LEN"`
	ReminderMaxDaysAhead     int `mapstructure:"REMINDER_MAX_DAYS_AHEAD"`
	ReminderSweepIntervalSec int `mapstructure:"REMINDER_SWEEP_INTERVAL_SEC"`
	ControllerQueueSize      int `mapstructure:"CONTROLLER_QUEUE_SIZE"`

	PyroscopeServerAddress string `mapstructure:"PYROSCOPE_SERVER_ADDRESS"`
}

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check in case another goroutine loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// A missing .env file is fine
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SIGNIN_RATE_PER_MIN", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "scribes")
	v.SetDefault("JWT_SECRET", "this-is-a-default-jwt-secret-key-with-32-plus-characters")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_MINUTES", 60)
	v.SetDefault("WS_MAX_SESSION_SEC", 900)
	v.SetDefault("WS_OUTBOX_BUFFER", 64)
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)
	v.SetDefault("SEARCH_MIN_QUERY_LEN", 2)
	v.SetDefault("REMINDER_MAX_DAYS_AHEAD", 365)
	v.SetDefault("REMINDER_SWEEP_INTERVAL_SEC", 60)
	v.SetDefault("CONTROLLER_QUEUE_SIZE", 32)
	v.SetDefault("PYROSCOPE_SERVER_ADDRESS", "")
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AppPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.BcryptCost, validation.Required, validation.Min(10), validation.Max(16)),
		validation.Field(&c.SignInRatePerMin, validation.Required, validation.Min(1)),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.Required, validation.In("json", "text")),
		validation.Field(&c.MongoURI, validation.Required),
		validation.Field(&c.MongoDBName, validation.Required),
		validation.Field(&c.JWTAlgorithm, validation.Required, validation.In("HS256")),
		validation.Field(&c.JWTSecret, validation.Required,
			validation.When(c.JWTAlgorithm == "HS256", validation.Length(32, 0))),
		validation.Field(&c.AccessTokenMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.WSMaxSessionSec, validation.Required, validation.Min(1)),
		validation.Field(&c.WSOutboxBuffer, validation.Required, validation.Min(1)),
		validation.Field(&c.SearchMinQueryLen, validation.Min(0), validation.Max(64)),
		validation.Field(&c.ReminderMaxDaysAhead, validation.Required, validation.Min(1), validation.Max(3650)),
		validation.Field(&c.ReminderSweepIntervalSec, validation.Required, validation.Min(1)),
		validation.Field(&c.ControllerQueueSize, validation.Required, validation.Min(1)),
	)
}
