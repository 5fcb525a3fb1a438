/**
 * @description
 * This package handles the configuration management for the service. It
 * uses the Viper library to read configuration from environment variables
 * (with an optional .env file), providing a centralized way to manage
 * application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the billing-service.
// Redis and RabbitMQ are optional; leaving their URLs empty disables the
// plan cache and event publishing respectively.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	BillingEventExchange string `mapstructure:"BILLING_EVENT_EXCHANGE"`
	JWKSURL              string `mapstructure:"JWKS_URL"`
	LogLevel             string `mapstructure:"LOG_LEVEL"`
	MigrationsDir        string `mapstructure:"MIGRATIONS_DIR"`
	PlanCacheTTLMinutes  int    `mapstructure:"PLAN_CACHE_TTL_MINUTES"`
}

// LoadConfig reads configuration from environment variables, with an
// optional .env file at the given path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("BILLING_EVENT_EXCHANGE", "billing_events")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MIGRATIONS_DIR", "migrations")
	viper.SetDefault("PLAN_CACHE_TTL_MINUTES", 10)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("BILLING_EVENT_EXCHANGE")
	_ = viper.BindEnv("JWKS_URL")
	_ = viper.BindEnv("LOG_LEVEL")
	_ = viper.BindEnv("MIGRATIONS_DIR")
	_ = viper.BindEnv("PLAN_CACHE_TTL_MINUTES")

	if err = viper.ReadInConfig(); err != nil {
		// The .env file is optional; only real read errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
