package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gosprt/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Simulation SimulationConfig
	LogLevel   string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// SimulationConfig holds Monte Carlo defaults and limits
type SimulationConfig struct {
	Trials    int
	Workers   int
	Seed      uint64
	Alpha     float64
	MaxTrials int // upper bound accepted from API callers
	MaxN      int // largest population size accepted from API callers
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:     *loadServerConfig(),
		Simulation: *loadSimulationConfig(),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		Trials:    getEnvIntOrDefault("SIM_TRIALS", 1000),
		Workers:   getEnvIntOrDefault("SIM_WORKERS", runtime.GOMAXPROCS(0)),
		Seed:      getEnvUintOrDefault("SIM_SEED", 42),
		Alpha:     getEnvFloatOrDefault("SIM_ALPHA", 0.05),
		MaxTrials: getEnvIntOrDefault("SIM_MAX_TRIALS", 100000),
		MaxN:      getEnvIntOrDefault("SIM_MAX_POPULATION", 1000000),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	sim := config.Simulation
	if sim.Trials <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("SIM_TRIALS must be positive, got %d", sim.Trials))
	}
	if sim.Workers <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("SIM_WORKERS must be positive, got %d", sim.Workers))
	}
	if !(sim.Alpha > 0 && sim.Alpha < 1) {
		return errors.ConfigInvalid(fmt.Sprintf("SIM_ALPHA must lie in (0,1), got %v", sim.Alpha))
	}
	if sim.MaxTrials < sim.Trials {
		return errors.ConfigInvalid(fmt.Sprintf("SIM_MAX_TRIALS (%d) is below SIM_TRIALS (%d)", sim.MaxTrials, sim.Trials))
	}
	if sim.MaxN <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("SIM_MAX_POPULATION must be positive, got %d", sim.MaxN))
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

func getEnvUintOrDefault(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
