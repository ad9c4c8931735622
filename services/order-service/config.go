package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	awspkg "github.com/yashrajoria/multivendor-store/pkg/aws"
	"github.com/yashrajoria/multivendor-store/services/order-service/database"
	"github.com/yashrajoria/multivendor-store/services/order-service/sender"
	"github.com/yashrajoria/multivendor-store/services/order-service/services"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	CatalogMongo  = "mongo"
	CatalogDynamo = "dynamodb"

	NotifierSMTP = "smtp"
	NotifierSQS  = "sqs"
)

type Config struct {
	Port           string
	Env            string
	RequestTimeout time.Duration

	OrderStore string
	MongoURL   string
	MongoDB    string
	Postgres   database.PostgresConfig
	RedisURL   string

	CatalogBackend string
	CatalogTable   string

	Notifier             string
	SMTP                 sender.SMTPConfig
	NotificationQueueURL string

	KafkaBrokers          []string
	OrderEventsTopic      string
	OrderSNSTopicArn      string
	PaymentEventsQueueURL string
	PaymentEventsTopic    string
	PaymentConsumerGroup  string

	Ledger         services.LedgerConfig
	OTPVerifyRate  rate.Limit
	OTPVerifyBurst int
	CartTTL        time.Duration
	IdempotencyTTL time.Duration

	UseAWSSecrets bool
}

// LoadConfig reads .env (if present) and the environment, then overlays
// Secrets Manager credentials when AWS_USE_SECRETS=true.
func LoadConfig(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	defaults := services.DefaultLedgerConfig()
	cfg := &Config{
		Port:           getEnv("PORT", "8083"),
		Env:            getEnv("ENV", "development"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),

		OrderStore: strings.ToLower(getEnv("ORDER_STORE", StoreMongo)),
		MongoURL:   getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:    getEnv("MONGO_DB", "marketplace"),
		Postgres: database.PostgresConfig{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),
		},
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		CatalogBackend: strings.ToLower(getEnv("CATALOG_BACKEND", CatalogMongo)),
		CatalogTable:   getEnv("CATALOG_TABLE", "products"),

		Notifier: strings.ToLower(getEnv("NOTIFIER", NotifierSMTP)),
		SMTP: sender.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		NotificationQueueURL: os.Getenv("NOTIFICATION_QUEUE_URL"),

		KafkaBrokers:          splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic:      getEnv("ORDER_EVENTS_TOPIC", "order.events"),
		OrderSNSTopicArn:      os.Getenv("ORDER_SNS_TOPIC_ARN"),
		PaymentEventsQueueURL: os.Getenv("PAYMENT_EVENTS_QUEUE_URL"),
		PaymentEventsTopic:    os.Getenv("PAYMENT_EVENTS_TOPIC"),
		PaymentConsumerGroup:  getEnv("PAYMENT_CONSUMER_GROUP", "order-service"),

		Ledger: services.LedgerConfig{
			DeliveryCharge: getFloat("DELIVERY_CHARGE", defaults.DeliveryCharge),
			ServiceCharge:  getFloat("SERVICE_CHARGE", defaults.ServiceCharge),
			OTPTTL:         getDuration("OTP_TTL", defaults.OTPTTL),
		},
		OTPVerifyRate:  rate.Every(getDuration("OTP_VERIFY_RATE", 12*time.Second)),
		OTPVerifyBurst: getInt("OTP_VERIFY_BURST", 5),
		CartTTL:        getDuration("CART_TTL", 7*24*time.Hour),
		IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		UseAWSSecrets: os.Getenv("AWS_USE_SECRETS") == "true",
	}

	if cfg.UseAWSSecrets {
		if err := cfg.applySecrets(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.validate()
}

func (c *Config) applySecrets(ctx context.Context) error {
	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		return err
	}
	sm := awspkg.NewSecretsClient(awsCfg)

	if c.OrderStore == StorePostgres {
		db, err := sm.GetSecretMap(ctx, "order/DB_CREDENTIALS")
		if err != nil {
			return fmt.Errorf("failed to load database credentials: %w", err)
		}
		override(&c.Postgres.User, db["POSTGRES_USER"])
		override(&c.Postgres.Password, db["POSTGRES_PASSWORD"])
		override(&c.Postgres.DBName, db["POSTGRES_DB"])
		override(&c.Postgres.Host, db["POSTGRES_HOST"])
		override(&c.Postgres.Port, db["POSTGRES_PORT"])
	}

	if c.Notifier == NotifierSMTP {
		smtp, err := sm.GetSecretMap(ctx, "order/SMTP_CREDENTIALS")
		if err != nil {
			return fmt.Errorf("failed to load SMTP credentials: %w", err)
		}
		override(&c.SMTP.Host, smtp["SMTP_HOST"])
		override(&c.SMTP.Port, smtp["SMTP_PORT"])
		override(&c.SMTP.Username, smtp["SMTP_USERNAME"])
		override(&c.SMTP.Password, smtp["SMTP_PASSWORD"])
		override(&c.SMTP.From, smtp["SMTP_FROM"])
	}
	return nil
}

func (c *Config) validate() error {
	switch c.OrderStore {
	case StoreMongo:
	case StorePostgres:
		p := c.Postgres
		if p.User == "" || p.Password == "" || p.DBName == "" || p.Host == "" {
			return fmt.Errorf("database config incomplete")
		}
	default:
		return fmt.Errorf("ORDER_STORE must be %s or %s, got %q", StoreMongo, StorePostgres, c.OrderStore)
	}

	switch c.CatalogBackend {
	case CatalogMongo, CatalogDynamo:
	default:
		return fmt.Errorf("CATALOG_BACKEND must be %s or %s, got %q", CatalogMongo, CatalogDynamo, c.CatalogBackend)
	}

	switch c.Notifier {
	case NotifierSMTP:
	case NotifierSQS:
		if c.NotificationQueueURL == "" {
			return fmt.Errorf("NOTIFICATION_QUEUE_URL is required when NOTIFIER=%s", NotifierSQS)
		}
	default:
		return fmt.Errorf("NOTIFIER must be %s or %s, got %q", NotifierSMTP, NotifierSQS, c.Notifier)
	}

	if c.Ledger.OTPTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	if c.Ledger.DeliveryCharge < 0 || c.Ledger.ServiceCharge < 0 {
		return fmt.Errorf("DELIVERY_CHARGE and SERVICE_CHARGE cannot be negative")
	}
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
