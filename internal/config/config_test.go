package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valid() Config {
	cfg := Defaults()
	cfg.Engine.Account = "0x00000000000000000000000000000000000000EE"
	cfg.Engine.Operators = []string{"0x0000000000000000000000000000000000000001"}
	cfg.Server.OperatorKeys = []string{"test-key"}
	return cfg
}

func TestValidate(t *testing.T) {
	cfg := valid()
	require.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Engine.Account = "not-an-address"
	assert.ErrorContains(t, cfg.Validate(), "not a hex address")

	cfg = valid()
	cfg.Engine.Operators = nil
	assert.ErrorContains(t, cfg.Validate(), "at least one operator")

	cfg = valid()
	cfg.Engine.MinStake = 0
	assert.ErrorContains(t, cfg.Validate(), "min_stake")

	cfg = valid()
	cfg.Engine.MaxStake = 5
	cfg.Engine.MinStake = 10
	assert.ErrorContains(t, cfg.Validate(), "max_stake")

	cfg = valid()
	cfg.Mode = "trade"
	assert.ErrorContains(t, cfg.Validate(), "unknown mode")

	cfg = valid()
	cfg.Mode = "verify"
	assert.ErrorContains(t, cfg.Validate(), "requires postgres")

	cfg = valid()
	cfg.Archive.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "requires s3")

	cfg = valid()
	cfg.Alerts.Enabled = true
	cfg.Redis.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "no telegram or discord")

	// Every problem is reported, not just the first.
	cfg = valid()
	cfg.Engine.Account = ""
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, 2, strings.Count(err.Error(), "\n  - "))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOOSTER_ENGINE_MIN_STAKE", "25")
	t.Setenv("BOOSTER_ENGINE_OPERATORS", "0x0000000000000000000000000000000000000001, 0x0000000000000000000000000000000000000002")
	t.Setenv("BOOSTER_MODE", "verify")
	t.Setenv("BOOSTER_REDIS_ENABLED", "true")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, uint64(25), cfg.Engine.MinStake)
	assert.Equal(t, []string{
		"0x0000000000000000000000000000000000000001",
		"0x0000000000000000000000000000000000000002",
	}, cfg.Engine.Operators)
	assert.Equal(t, "verify", cfg.Mode)
	assert.True(t, cfg.Redis.Enabled)
}

func TestRedactedConfig(t *testing.T) {
	cfg := valid()
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "secret"
	cfg.Alerts.TelegramToken = "123:abc"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.S3.SecretKey)
	assert.Equal(t, "***", red.Alerts.TelegramToken)
	assert.Equal(t, []string{"***"}, red.Server.OperatorKeys)

	// The original is untouched.
	assert.Equal(t, "hunter2", cfg.Postgres.Password)
	assert.Equal(t, []string{"test-key"}, cfg.Server.OperatorKeys)
}
