package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// defaults first
	setDefaults(v)

	// File Config
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Env Config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read File
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Validate
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("service_name", "upmon-worker")
	v.SetDefault("port", 8080)

	v.SetDefault("scheduler.tick_interval", "60s")
	v.SetDefault("scheduler.grace", "30s")
	v.SetDefault("scheduler.batch_size", 4)

	v.SetDefault("checker.probe_timeout", "15s")
	v.SetDefault("checker.retry_backoff", "20s")
	v.SetDefault("checker.max_redirects", 8)
	v.SetDefault("checker.message_deadline", "55s")

	v.SetDefault("aggregator.tick_interval", "60s")
	v.SetDefault("aggregator.result_ttl", "300s")
	v.SetDefault("aggregator.alert_cooldown", "2h")

	v.SetDefault("mail.api_url", "https://api.resend.com/emails")
	v.SetDefault("mail.batch_size", 2)
	v.SetDefault("mail.batch_pause", "1s")

	v.SetDefault("rabbitmq.exchange_name", "upmon.checks")
	v.SetDefault("rabbitmq.exchange_type", "direct")
	v.SetDefault("rabbitmq.queue_name", "upmon.checks.due")
	v.SetDefault("rabbitmq.routing_key", "checks.due")
	v.SetDefault("rabbitmq.prefetch", 8)

	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.conn_max_lifetime", "2m")
	v.SetDefault("redis.conn_max_idle_time", "30s")

	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.min_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "1h")
	v.SetDefault("db.conn_max_idle_time", "30m")
	v.SetDefault("db.health_timeout", "5s")
}

func validateConfig(cfg *Config) error {

	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return formatValidationErrors(ve)
		}
		return err
	}
	return nil
}

func formatValidationErrors(ve validator.ValidationErrors) error {
	var sb strings.Builder
	sb.WriteString("config validation failed:\n")

	for _, fe := range ve {
		fmt.Fprintf(&sb, "- field '%s' failed on '%s'\n", fe.Namespace(), fe.Tag())
	}
	return errors.New(sb.String())
}
