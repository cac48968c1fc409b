package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092 ,, b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "value")
	t.Setenv("CFG_TEST_INT", "not-a-number")
	t.Setenv("CFG_TEST_DUR", "90s")

	assert.Equal(t, "value", EnvDefault("CFG_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("CFG_TEST_MISSING", "def"))
	assert.Equal(t, 7, EnvIntDefault("CFG_TEST_INT", 7))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("CFG_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("CFG_TEST_MISSING", time.Second))
}

func TestLoad_TrimsServiceURLs(t *testing.T) {
	t.Setenv("CATALOG_URL", "http://catalog:8080/")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	assert.Equal(t, "http://catalog:8080", cfg.CatalogURL)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
}
