package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Redis (provider response cache)
	RedisURL string `mapstructure:"REDIS_URL"`

	// Football data API
	FootballAPIKey    string `mapstructure:"FOOTBALL_API_KEY"`
	FootballAPISource string `mapstructure:"FOOTBALL_API_SOURCE"` // "api-sports" or "rapidapi"
	DefaultLeague     int    `mapstructure:"DEFAULT_LEAGUE"`
	DefaultSeason     int    `mapstructure:"DEFAULT_SEASON"`
	MaxPlayerPages    int    `mapstructure:"MAX_PLAYER_PAGES"`

	// External API behavior
	ExternalAPITimeout      time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	CircuitBreakerThreshold int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`
	ProviderCacheTTL        time.Duration `mapstructure:"PROVIDER_CACHE_TTL"`

	// Background jobs
	EnableBackgroundJobs bool   `mapstructure:"ENABLE_BACKGROUND_JOBS"`
	DataRefreshSchedule  string `mapstructure:"DATA_REFRESH_SCHEDULE"` // cron spec
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "8084")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("FOOTBALL_API_KEY", "")
	viper.SetDefault("FOOTBALL_API_SOURCE", "api-sports")
	viper.SetDefault("DEFAULT_LEAGUE", 39) // Premier League
	viper.SetDefault("DEFAULT_SEASON", 2023)
	viper.SetDefault("MAX_PLAYER_PAGES", 3)
	viper.SetDefault("EXTERNAL_API_TIMEOUT", "10s")
	viper.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5)
	viper.SetDefault("PROVIDER_CACHE_TTL", "24h")
	viper.SetDefault("ENABLE_BACKGROUND_JOBS", false)
	viper.SetDefault("DATA_REFRESH_SCHEDULE", "0 */6 * * *")

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
