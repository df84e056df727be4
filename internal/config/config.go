package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"oraclesim/internal/errors"
)

// CodeVersion is stamped into every run fingerprint
const CodeVersion = "0.4.0"

// Config represents the complete application configuration
type Config struct {
	Simulation SimulationConfig
	Server     ServerConfig
	Logging    LoggingConfig
	Export     ExportConfig
	Profiling  ProfilingConfig
}

// SimulationConfig holds Monte Carlo engine settings
type SimulationConfig struct {
	Seed        int64
	Workers     int
	MaxRuns     int
	CodeVersion string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// ExportConfig holds result export settings
type ExportConfig struct {
	Dir string
}

// ProfilingConfig holds pprof server settings
type ProfilingConfig struct {
	Enabled bool
	Port    string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Simulation: *loadSimulationConfig(),
		Server:     *loadServerConfig(),
		Logging:    *loadLoggingConfig(),
		Export:     *loadExportConfig(),
		Profiling:  *loadProfilingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		Seed:        getEnvInt64OrDefault("SIM_SEED", 42),
		Workers:     getEnvIntOrDefault("SIM_WORKERS", runtime.GOMAXPROCS(0)),
		MaxRuns:     getEnvIntOrDefault("SIM_MAX_RUNS", 100000),
		CodeVersion: getEnvOrDefault("SIM_CODE_VERSION", CodeVersion),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 2*time.Minute),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func loadExportConfig() *ExportConfig {
	return &ExportConfig{
		Dir: getEnvOrDefault("EXPORT_DIR", "."),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Enabled: getEnvBoolOrDefault("PROFILING_ENABLED", false),
		Port:    getEnvOrDefault("PROFILING_PORT", "6060"),
	}
}

func validateConfig(config *Config) error {
	if config.Simulation.Workers < 1 {
		return errors.ConfigInvalid("SIM_WORKERS must be at least 1")
	}
	if config.Simulation.MaxRuns < 1 {
		return errors.ConfigInvalid("SIM_MAX_RUNS must be at least 1")
	}
	if config.Simulation.CodeVersion == "" {
		return errors.ConfigInvalid("code version is required")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.RequestTimeout <= 0 {
		return errors.ConfigInvalid("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
