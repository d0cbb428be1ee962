package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Booking  BookingConfig  `yaml:"booking"`
	Reminder ReminderConfig `yaml:"reminder"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Push     PushConfig     `yaml:"push"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	SSLMode       string `yaml:"ssl_mode"`
	MigrateOnBoot bool   `yaml:"migrate_on_boot"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	PushTopic          string   `yaml:"push_topic"`
	GroupID            string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminUsername string        `yaml:"admin_username"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
}

type BookingConfig struct {
	Timezone        string        `yaml:"timezone"`
	CatalogCacheTTL time.Duration `yaml:"catalog_cache_ttl"`
}

// Location loads the configured booking timezone.
func (b BookingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", b.Timezone, err)
	}
	return loc, nil
}

type ReminderConfig struct {
	Interval time.Duration `yaml:"interval"`
	Window   time.Duration `yaml:"window"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type SMTPConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	From          string `yaml:"from"`
	TestRecipient string `yaml:"test_recipient"`
}

type PushConfig struct {
	ExpoURL     string        `yaml:"expo_url"`
	AccessToken string        `yaml:"access_token"`
	Timeout     time.Duration `yaml:"timeout"`
}

type WorkerConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
}

// LoadConfig reads an optional .env next to the working directory, expands
// ${VAR} references in the YAML file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.BookingEventsTopic == "" {
		c.Kafka.BookingEventsTopic = "booking-events"
	}
	if c.Kafka.PushTopic == "" {
		c.Kafka.PushTopic = "push-notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "booking-worker"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Booking.CatalogCacheTTL == 0 {
		c.Booking.CatalogCacheTTL = 5 * time.Minute
	}
	if c.Reminder.Interval == 0 {
		c.Reminder.Interval = time.Minute
	}
	if c.Reminder.Window == 0 {
		c.Reminder.Window = time.Hour
	}
	if c.Reminder.LockTTL == 0 {
		c.Reminder.LockTTL = c.Reminder.Interval
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Push.ExpoURL == "" {
		c.Push.ExpoURL = "https://exp.host/--/api/v2/push/send"
	}
	if c.Push.Timeout == 0 {
		c.Push.Timeout = 10 * time.Second
	}
	if c.Worker.MetricsAddress == "" {
		c.Worker.MetricsAddress = ":9091"
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Reminder.Interval < 0 || c.Reminder.Window < 0 {
		errs = append(errs, errors.New("reminder durations must be positive"))
	}
	if _, err := c.Booking.Location(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
