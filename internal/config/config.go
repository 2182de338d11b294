package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	LedgerDriver string `mapstructure:"LEDGER_DRIVER"`
	SQLitePath   string `mapstructure:"SQLITE_PATH"`
	PostgresDSN  string `mapstructure:"POSTGRES_DSN"`

	TemporalAddress   string `mapstructure:"TEMPORAL_ADDRESS"`
	TemporalNamespace string `mapstructure:"TEMPORAL_NAMESPACE"`
	TemporalTaskQueue string `mapstructure:"TEMPORAL_TASK_QUEUE"`

	GatewayProvider        string `mapstructure:"GATEWAY_PROVIDER"`
	MercadoPagoAccessToken string `mapstructure:"MERCADO_PAGO_ACCESS_TOKEN"`
	MercadoPagoBaseURL     string `mapstructure:"MERCADO_PAGO_BASE_URL"`
	WebhookBaseURL         string `mapstructure:"WEBHOOK_BASE_URL"`
	StripeAPIKey           string `mapstructure:"STRIPE_API_KEY"`
	StripeWebhookSecret    string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	Notifier     string `mapstructure:"NOTIFIER"`
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	SNSTopicARN  string `mapstructure:"SNS_TOPIC_ARN"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`

	ConfirmationWindow time.Duration `mapstructure:"CONFIRMATION_WINDOW"`
	BridgeGracePeriod  time.Duration `mapstructure:"BRIDGE_GRACE_PERIOD"`
	SettlementWins     bool          `mapstructure:"SETTLEMENT_WINS_OVER_CANCEL"`
	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
}

var defaults = map[string]any{
	"APP_ENV":                     "development",
	"HTTP_ADDR":                   ":3000",
	"LEDGER_DRIVER":               "sqlite",
	"SQLITE_PATH":                 "payments.db",
	"POSTGRES_DSN":                "",
	"TEMPORAL_ADDRESS":            "localhost:7233",
	"TEMPORAL_NAMESPACE":          "default",
	"TEMPORAL_TASK_QUEUE":         "payment-queue",
	"GATEWAY_PROVIDER":            "mercadopago",
	"MERCADO_PAGO_ACCESS_TOKEN":   "",
	"MERCADO_PAGO_BASE_URL":       "https://api.mercadopago.com",
	"WEBHOOK_BASE_URL":            "http://localhost:3000",
	"STRIPE_API_KEY":              "",
	"STRIPE_WEBHOOK_SECRET":       "",
	"NOTIFIER":                    "log",
	"KAFKA_BROKERS":               "localhost:9092",
	"KAFKA_TOPIC":                 "payment-events",
	"SNS_TOPIC_ARN":               "",
	"REDIS_ADDR":                  "",
	"CONFIRMATION_WINDOW":         "15m",
	"BRIDGE_GRACE_PERIOD":         "5s",
	"SETTLEMENT_WINS_OVER_CANCEL": false,
	"OUTBOX_POLL_INTERVAL":        "1s",
	"RATE_LIMIT_RPS":              20.0,
}

// Load reads an optional .env file, an optional config file and then the
// environment. Environment variables win.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.LedgerDriver {
	case "memory", "sqlite":
	case "postgres":
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres ledger"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LEDGER_DRIVER %q", c.LedgerDriver))
	}

	switch c.GatewayProvider {
	case "mercadopago":
	case "stripe":
		if c.StripeAPIKey == "" {
			errs = append(errs, errors.New("STRIPE_API_KEY is required for the stripe gateway"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown GATEWAY_PROVIDER %q", c.GatewayProvider))
	}

	switch c.Notifier {
	case "log", "kafka":
	case "sns":
		if c.SNSTopicARN == "" {
			errs = append(errs, errors.New("SNS_TOPIC_ARN is required for the sns notifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFIER %q", c.Notifier))
	}

	if c.ConfirmationWindow <= 0 {
		errs = append(errs, errors.New("CONFIRMATION_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
