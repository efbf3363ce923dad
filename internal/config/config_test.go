package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("GATEWAY_ACCESS_TOKEN", "")
	t.Setenv("RECONCILE_INTERVAL", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, "https://api.mercadopago.com", cfg.GatewayBaseURL)
	assert.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, time.Duration(0), cfg.ReconcileInterval)
	assert.Equal(t, "COP", cfg.CurrencyID)
	assert.Empty(t, cfg.GatewayAccessToken)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_PORT", "")
	t.Setenv("GATEWAY_BASE_URL", "http://gateway.local/")
	t.Setenv("GATEWAY_TIMEOUT", "3")
	t.Setenv("RECONCILE_INTERVAL", "2m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("WARMUP_PRODUCT_IDS", "p1,p2")
	t.Setenv("REDIRECT_BASE_URL", "https://echo.example.com/")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "http://gateway.local", cfg.GatewayBaseURL)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 2*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"p1", "p2"}, cfg.WarmupProductIDs)
	assert.Equal(t, "https://echo.example.com", cfg.RedirectBaseURL)
}
