package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App      AppSettings      `yaml:"app"`
	Database DatabaseSettings `yaml:"database"`
	Redis    RedisSettings    `yaml:"redis"`
	Server   ServerSettings   `yaml:"server"`
	Logging  LoggingSettings  `yaml:"logging"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// DatabaseSettings contains settings for the pooled SQLite databases.
// Each logical database gets its own file and its own fixed-size pool.
type DatabaseSettings struct {
	MainPath  string `yaml:"main_path" env:"DATABASE_PATH"`
	CachePath string `yaml:"cache_path" env:"CACHE_DATABASE_PATH"`

	// PoolSize is the number of connections created per logical database.
	PoolSize int `yaml:"pool_size" env:"DB_POOL_SIZE"`

	// PoolTimeout bounds the wait for a free pooled connection.
	PoolTimeout time.Duration `yaml:"pool_timeout" env:"DB_POOL_TIMEOUT"`

	// ConnectTimeout bounds the creation of a single connection.
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"DB_CONNECTION_TIMEOUT"`

	// RequireExplicitConnect disables the lenient open-on-first-use fallback
	// in the acquisition gateway. When false (the default), acquiring a
	// connection before Connect opens the pools implicitly with a warning.
	RequireExplicitConnect bool `yaml:"require_explicit_connect" env:"DB_REQUIRE_EXPLICIT_CONNECT"`
}

// RedisSettings contains settings for the read cache.
type RedisSettings struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// ServerSettings contains ops HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// parseDuration accepts Go duration strings ("30s", "1m") and bare second
// counts, matching the environment overlay's behavior.
func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return time.Duration(seconds) * time.Second, nil
}

// UnmarshalYAML decodes database settings, accepting human-readable duration
// strings for the timeout fields.
func (ds *DatabaseSettings) UnmarshalYAML(value *yaml.Node) error {
	var doc struct {
		MainPath               string `yaml:"main_path"`
		CachePath              string `yaml:"cache_path"`
		PoolSize               int    `yaml:"pool_size"`
		PoolTimeout            string `yaml:"pool_timeout"`
		ConnectTimeout         string `yaml:"connect_timeout"`
		RequireExplicitConnect bool   `yaml:"require_explicit_connect"`
	}
	if err := value.Decode(&doc); err != nil {
		return err
	}

	ds.MainPath = doc.MainPath
	ds.CachePath = doc.CachePath
	ds.PoolSize = doc.PoolSize
	ds.RequireExplicitConnect = doc.RequireExplicitConnect

	var err error
	if ds.PoolTimeout, err = parseDuration(doc.PoolTimeout); err != nil {
		return fmt.Errorf("database pool_timeout: %w", err)
	}
	if ds.ConnectTimeout, err = parseDuration(doc.ConnectTimeout); err != nil {
		return fmt.Errorf("database connect_timeout: %w", err)
	}
	return nil
}

// UnmarshalYAML decodes server settings, accepting human-readable duration
// strings for the timeout fields.
func (ss *ServerSettings) UnmarshalYAML(value *yaml.Node) error {
	var doc struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	}
	if err := value.Decode(&doc); err != nil {
		return err
	}

	ss.Host = doc.Host
	ss.Port = doc.Port

	var err error
	if ss.ReadTimeout, err = parseDuration(doc.ReadTimeout); err != nil {
		return fmt.Errorf("server read_timeout: %w", err)
	}
	if ss.WriteTimeout, err = parseDuration(doc.WriteTimeout); err != nil {
		return fmt.Errorf("server write_timeout: %w", err)
	}
	if ss.ShutdownTimeout, err = parseDuration(doc.ShutdownTimeout); err != nil {
		return fmt.Errorf("server shutdown_timeout: %w", err)
	}
	return nil
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// IsDevelopment checks if the application is running in development mode
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// IsTesting checks if the application is running in testing mode
func (as *AppSettings) IsTesting() bool {
	return strings.ToLower(as.Environment) == constants.EnvTesting
}

var (
	// cfg holds the current application configuration
	cfg *AppConfig
)

// Load loads the configuration from a config file and environment variables
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	// Load configuration from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		err = yaml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Override with environment variables
	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Set defaults for missing values
	setDefaults(config)

	// Validate the configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Save the configuration globally
	cfg = config

	logConfig(config)

	return config, nil
}

// Get returns the current application configuration
func Get() *AppConfig {
	if cfg == nil {
		log.Fatal().Msg("configuration not loaded")
	}
	return cfg
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	// App defaults
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = "cisbot"
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	// Database defaults
	if config.Database.MainPath == "" {
		config.Database.MainPath = constants.DefaultMainDBPath
	}
	if config.Database.CachePath == "" {
		config.Database.CachePath = constants.DefaultCacheDBPath
	}
	if config.Database.PoolSize == 0 {
		config.Database.PoolSize = constants.DefaultDBPoolSize
	}
	if config.Database.PoolTimeout == 0 {
		config.Database.PoolTimeout = constants.DBPoolCheckoutTimeout
	}
	if config.Database.ConnectTimeout == 0 {
		config.Database.ConnectTimeout = constants.DBConnectTimeout
	}

	// Redis defaults
	if config.Redis.Addr == "" {
		config.Redis.Addr = constants.DefaultRedisAddr
	}

	// Server defaults
	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	// Logging defaults
	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}
}

// validateConfig checks the configuration for invalid values
func validateConfig(config *AppConfig) error {
	if config.Database.PoolSize < 1 {
		return fmt.Errorf("database pool_size must be at least 1, got %d", config.Database.PoolSize)
	}
	if config.Database.PoolTimeout < 0 {
		return fmt.Errorf("database pool_timeout must not be negative")
	}
	if config.Database.MainPath == config.Database.CachePath {
		return fmt.Errorf("main and cache databases must use distinct files")
	}
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", config.Server.Port)
	}
	return nil
}

// logConfig logs the loaded configuration, hiding sensitive values
func logConfig(config *AppConfig) {
	log.Info().
		Str("environment", config.App.Environment).
		Str("main_db", config.Database.MainPath).
		Str("cache_db", config.Database.CachePath).
		Int("pool_size", config.Database.PoolSize).
		Dur("pool_timeout", config.Database.PoolTimeout).
		Str("redis_addr", config.Redis.Addr).
		Int("server_port", config.Server.Port).
		Str("log_level", config.Logging.Level).
		Msg("Configuration loaded")
}
