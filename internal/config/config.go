package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type SweepConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
}

type EmailConfig struct {
	From     string `mapstructure:"from"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type SMSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Provider string `mapstructure:"provider"`
	SenderID string `mapstructure:"sender_id"`
}

type Config struct {
	DatabaseURL string      `mapstructure:"database_url"`
	ServerPort  string      `mapstructure:"server_port"`
	JWTSecret   string      `mapstructure:"jwt_secret"`
	Sweep       SweepConfig `mapstructure:"sweep"`
	Email       EmailConfig `mapstructure:"email"`
	SMS         SMSConfig   `mapstructure:"sms"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}

	if config.Email.SMTPPort == 0 {
		config.Email.SMTPPort = 587
	}
	if config.Sweep.Interval == 0 {
		config.Sweep.Interval = 5 * time.Minute
	}
	if config.Sweep.DeliveryTimeout == 0 {
		config.Sweep.DeliveryTimeout = 10 * time.Second
	}

	return &config
}
