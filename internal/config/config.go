package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SHOP"

// minSigningKeyLen matches the HS256 key floor enforced by the token manager.
const minSigningKeyLen = 32

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type PaymentConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	KeyID          string        `mapstructure:"key_id"`
	KeySecret      string        `mapstructure:"key_secret"`
	GatewayTimeout time.Duration `mapstructure:"gateway_timeout"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type OrdersConfig struct {
	// StrictAdminTransitions limits admin status overrides to lifecycle edges.
	StrictAdminTransitions bool `mapstructure:"strict_admin_transitions"`
}

// KafkaConfig enables the status history relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type RelayConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// StorageConfig enables product image uploads when Bucket is set.
type StorageConfig struct {
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c StorageConfig) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

var defaults = map[string]any{
	"database.url":                    "",
	"database.max_conns":              10,
	"http.addr":                       ":8080",
	"http.shutdown_timeout":           "15s",
	"log.level":                       "info",
	"payment.base_url":                "https://api.razorpay.com",
	"payment.key_id":                  "",
	"payment.key_secret":              "",
	"payment.gateway_timeout":         "10s",
	"auth.signing_key":                "",
	"auth.token_ttl":                  "24h",
	"orders.strict_admin_transitions": false,
	"kafka.brokers":                   []string{},
	"kafka.topic":                     "orders.status",
	"relay.interval":                  "2s",
	"relay.batch_size":                100,
	"storage.bucket":                  "",
	"storage.public_base_url":         "",
}

// Load reads configuration from defaults, an optional YAML file and SHOP_* environment variables,
// in increasing precedence. SHOP_PAYMENT_KEY_ID overrides payment.key_id.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("v.ReadInConfig: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("v.Unmarshal: %w", err)
	}

	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports every missing or invalid field at once.
func (c Config) Validate() error {
	var invalid []string

	if strings.TrimSpace(c.Database.URL) == "" {
		invalid = append(invalid, "database.url")
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		invalid = append(invalid, "http.addr")
	}
	if strings.TrimSpace(c.Payment.KeyID) == "" {
		invalid = append(invalid, "payment.key_id")
	}
	if strings.TrimSpace(c.Payment.KeySecret) == "" {
		invalid = append(invalid, "payment.key_secret")
	}
	if c.Payment.GatewayTimeout <= 0 {
		invalid = append(invalid, "payment.gateway_timeout")
	}
	if len(c.Auth.SigningKey) < minSigningKeyLen {
		invalid = append(invalid, "auth.signing_key")
	}
	if c.Auth.TokenTTL <= 0 {
		invalid = append(invalid, "auth.token_ttl")
	}
	if c.Kafka.Enabled() {
		if c.Relay.Interval <= 0 {
			invalid = append(invalid, "relay.interval")
		}
		if c.Relay.BatchSize <= 0 {
			invalid = append(invalid, "relay.batch_size")
		}
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

// ValidationError lists the configuration keys that are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// splitList flattens comma separated entries, as brokers arrive from a single env var.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
