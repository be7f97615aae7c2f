package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 100, cfg.JobQueueSize)
	assert.Equal(t, 2, cfg.JobWorkers)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SPENDSCORE_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/spendscore")
	t.Setenv("SPENDSCORE_PROFILES", "/etc/spendscore/profiles.yaml")
	t.Setenv("SPENDSCORE_QUEUE_SIZE", "10")
	t.Setenv("SPENDSCORE_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://localhost:5432/spendscore", cfg.DatabaseURL)
	assert.Equal(t, "/etc/spendscore/profiles.yaml", cfg.ProfilesPath)
	assert.Equal(t, 10, cfg.JobQueueSize)
	assert.Equal(t, 4, cfg.JobWorkers)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("SPENDSCORE_QUEUE_SIZE", "not-a-number")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SPENDSCORE_QUEUE_SIZE", "0")
	_, err = Load()
	assert.Error(t, err)
}
