package config

import "time"

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RabbitMQConfig struct {
	BrokerLink   string `mapstructure:"broker_link" validate:"required"`
	ExchangeName string `mapstructure:"exchange_name"`
	ExchangeType string `mapstructure:"exchange_type"`
	QueueName    string `mapstructure:"queue_name"`
	RoutingKey   string `mapstructure:"routing_key"`
	Prefetch     int    `mapstructure:"prefetch"`
}

type SchedulerConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Grace        time.Duration `mapstructure:"grace"`
	BatchSize    int           `mapstructure:"batch_size" validate:"gt=0"`
}

type CheckerConfig struct {
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	MaxRedirects    int           `mapstructure:"max_redirects"`
	MessageDeadline time.Duration `mapstructure:"message_deadline"`
}

type AggregatorConfig struct {
	TickInterval  time.Duration `mapstructure:"tick_interval"`
	ResultTTL     time.Duration `mapstructure:"result_ttl"`
	AlertCooldown time.Duration `mapstructure:"alert_cooldown"`
}

type MailConfig struct {
	APIURL       string        `mapstructure:"api_url"`
	APIKey       string        `mapstructure:"api_key"`
	From         string        `mapstructure:"from"`
	DashboardURL string        `mapstructure:"dashboard_url"`
	BatchSize    int           `mapstructure:"batch_size" validate:"gt=0"`
	BatchPause   time.Duration `mapstructure:"batch_pause"`
}

type Config struct {
	Env         string            `mapstructure:"env"`
	ServiceName string            `mapstructure:"service_name"`
	Port        int               `mapstructure:"port"`
	DB          *DBConfig         `mapstructure:"db" validate:"required"`
	Redis       *RedisConfig      `mapstructure:"redis" validate:"required"`
	RabbitMQ    *RabbitMQConfig   `mapstructure:"rabbitmq" validate:"required"`
	Scheduler   *SchedulerConfig  `mapstructure:"scheduler" validate:"required"`
	Checker     *CheckerConfig    `mapstructure:"checker" validate:"required"`
	Aggregator  *AggregatorConfig `mapstructure:"aggregator" validate:"required"`
	Mail        *MailConfig       `mapstructure:"mail" validate:"required"`
}
