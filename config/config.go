// Initializing common application configuration
package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Rabbit    RabbitConfig    `mapstructure:"rabbit"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Email     EmailConfig     `mapstructure:"email"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port        string        `mapstructure:"port"`
	Mode        string        `mapstructure:"mode"`
	Timeout     time.Duration `mapstructure:"timeout"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type RabbitConfig struct {
	URL       string `mapstructure:"url"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	QueueName string `mapstructure:"queue_name"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
	Enabled bool   `mapstructure:"enabled"`
}

type EmailConfig struct {
	From    string `mapstructure:"from"`
	APIKey  string `mapstructure:"api_key"`
	Enabled bool   `mapstructure:"enabled"`
}

// AlertingConfig replaces the runtime settings document of the original
// system: one explicit configuration object loaded at startup, updated
// through the alerts API.
type AlertingConfig struct {
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	CooldownWindow      time.Duration `mapstructure:"cooldown_window"`
	CooldownCapacity    int           `mapstructure:"cooldown_capacity"`
}

type SchedulerConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

func LoadConfig() (*viper.Viper, error) {
	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)

	if err := viperInstance.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}

	// Deployment secrets come from the environment when set; the yaml
	// values serve as fallbacks.
	c.Database.Password = GetEnv("DB_PASSWORD", c.Database.Password)
	c.Redis.Password = GetEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Rabbit.URL = GetEnv("RABBIT_URL", c.Rabbit.URL)
	c.Kafka.Brokers = GetEnv("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Email.APIKey = GetEnv("RESEND_API_KEY", c.Email.APIKey)

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "emergency_ops")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "emergency_ops")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("rabbit.host", "localhost")
	v.SetDefault("rabbit.port", 5672)
	v.SetDefault("rabbit.username", "guest")
	v.SetDefault("rabbit.password", "guest")
	v.SetDefault("rabbit.queue_name", "scheduled_notifications")

	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "detection-events")
	v.SetDefault("kafka.group_id", "emergency-ops")
	v.SetDefault("kafka.enabled", false)

	v.SetDefault("email.from", "alerts@emergency-ops.local")
	v.SetDefault("email.enabled", false)

	v.SetDefault("alerting.confidence_threshold", 0.5)
	v.SetDefault("alerting.cooldown_window", 30*time.Second)
	v.SetDefault("alerting.cooldown_capacity", 1024)

	v.SetDefault("scheduler.sweep_interval", time.Minute)
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
