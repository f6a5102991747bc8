package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	c, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, 0.5, c.Alerting.ConfidenceThreshold)
	assert.Equal(t, 30*time.Second, c.Alerting.CooldownWindow)
	assert.Equal(t, time.Minute, c.Scheduler.SweepInterval)
	assert.False(t, c.Email.Enabled)
}

func TestParseConfigEnvOverridesSecrets(t *testing.T) {
	t.Setenv("DB_PASSWORD", "from-env")
	t.Setenv("RESEND_API_KEY", "re_test_key")

	v := viper.New()
	setDefaults(v)

	c, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "from-env", c.Database.Password)
	assert.Equal(t, "re_test_key", c.Email.APIKey)
	assert.Equal(t, "localhost:9092", c.Kafka.Brokers, "unset env keeps the yaml fallback")
}

func TestGetEnv(t *testing.T) {
	t.Setenv("OPS_TEST_KEY", "set")

	assert.Equal(t, "set", GetEnv("OPS_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("OPS_TEST_MISSING", "fallback"))
}
