package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chat gateway
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Mongo    MongoConfig    `yaml:"mongo"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	NATS     NATSConfig     `yaml:"nats"`
	Events   EventsConfig   `yaml:"events"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Sessions SessionsConfig `yaml:"sessions"`
	Menu     []MenuEntry    `yaml:"menu"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig selects the order/menu store backend: postgres, sqlite or mongo.
type StoreConfig struct {
	Driver string `yaml:"driver"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// SQLiteConfig holds the SQLite store location
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// NATSConfig holds NATS connection settings
type NATSConfig struct {
	URL string `yaml:"url"`
}

// EventsConfig selects the event bus: rabbitmq, nats or none.
type EventsConfig struct {
	Driver string `yaml:"driver"`
}

// WhatsAppConfig holds WhatsApp Cloud API settings
type WhatsAppConfig struct {
	// Driver is cloud (Graph API) or console (log only).
	Driver        string        `yaml:"driver"`
	APIBaseURL    string        `yaml:"api_base_url"`
	APIVersion    string        `yaml:"api_version"`
	PhoneNumberID string        `yaml:"phone_number_id"`
	AccessToken   string        `yaml:"access_token"`
	VerifyToken   string        `yaml:"verify_token"`
	Timeout       time.Duration `yaml:"timeout"`
}

// SessionsConfig holds session expiry settings
type SessionsConfig struct {
	ChatTTL time.Duration `yaml:"chat_ttl"`
	CallTTL time.Duration `yaml:"call_ttl"`
}

// MenuEntry is a menu item upserted into the store at startup.
type MenuEntry struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:   LogConfig{Level: "info"},
		Store: StoreConfig{Driver: "postgres"},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "gateway",
			Password: "gateway",
			Database: "gateway",
			MaxConns: 10,
			MinConns: 1,
		},
		SQLite: SQLiteConfig{Path: "gateway.db"},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "gateway",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
		},
		NATS:   NATSConfig{URL: "nats://localhost:4222"},
		Events: EventsConfig{Driver: "none"},
		WhatsApp: WhatsAppConfig{
			Driver:     "cloud",
			APIBaseURL: "https://graph.facebook.com",
			APIVersion: "v21.0",
			Timeout:    15 * time.Second,
		},
		Sessions: SessionsConfig{
			ChatTTL: 24 * time.Hour,
			CallTTL: time.Hour,
		},
	}
}

// Load reads configuration from a YAML file on top of Default and applies environment overrides.
// An empty filename skips the file.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides values from well-known environment variables
func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("DATABASE_URL", &c.Database.URL)
	setString("MONGO_URI", &c.Mongo.URI)
	setString("RABBITMQ_URL", &c.RabbitMQ.URL)
	setString("NATS_URL", &c.NATS.URL)
	setString("STORE_DRIVER", &c.Store.Driver)
	setString("EVENTS_DRIVER", &c.Events.Driver)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("WHATSAPP_ACCESS_TOKEN", &c.WhatsApp.AccessToken)
	setString("WHATSAPP_PHONE_NUMBER_ID", &c.WhatsApp.PhoneNumberID)
	setString("WHATSAPP_VERIFY_TOKEN", &c.WhatsApp.VerifyToken)

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT value: %w", err)
		}
		c.Server.Port = port
	}

	return nil
}

// Validate checks driver selections and required values
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite", "mongo":
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}

	switch c.Events.Driver {
	case "rabbitmq", "nats", "none":
	default:
		return fmt.Errorf("unknown events driver: %q", c.Events.Driver)
	}

	switch c.WhatsApp.Driver {
	case "cloud":
		if c.WhatsApp.PhoneNumberID == "" || c.WhatsApp.AccessToken == "" {
			return errors.New("whatsapp cloud driver requires phone_number_id and access_token")
		}
	case "console":
	default:
		return fmt.Errorf("unknown whatsapp driver: %q", c.WhatsApp.Driver)
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	if c.RabbitMQ.URL != "" {
		return c.RabbitMQ.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
