package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ORDER_STORE", "")
	t.Setenv("NOTIFIER", "")
	t.Setenv("AWS_USE_SECRETS", "")

	cfg, err := LoadConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.OrderStore)
	assert.Equal(t, CatalogMongo, cfg.CatalogBackend)
	assert.Equal(t, 50.0, cfg.Ledger.DeliveryCharge)
	assert.Equal(t, 30.0, cfg.Ledger.ServiceCharge)
	assert.Equal(t, 10*time.Minute, cfg.Ledger.OTPTTL)
	assert.Equal(t, rate.Every(12*time.Second), cfg.OTPVerifyRate)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DELIVERY_CHARGE", "40")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CATALOG_BACKEND", "DynamoDB")

	cfg, err := LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40.0, cfg.Ledger.DeliveryCharge)
	assert.Equal(t, 5*time.Minute, cfg.Ledger.OTPTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, CatalogDynamo, cfg.CatalogBackend)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"ORDER_STORE": "mysql"}},
		{"postgres without credentials", map[string]string{"ORDER_STORE": "postgres", "POSTGRES_HOST": ""}},
		{"sqs notifier without queue", map[string]string{"NOTIFIER": "sqs", "NOTIFICATION_QUEUE_URL": ""}},
		{"unknown catalog", map[string]string{"CATALOG_BACKEND": "s3"}},
		{"negative charge", map[string]string{"SERVICE_CHARGE": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(context.Background())
			assert.Error(t, err)
		})
	}
}
