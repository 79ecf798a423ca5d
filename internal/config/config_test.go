package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "https://rest.gohighlevel.com", cfg.CRMBaseURL)
	assert.Equal(t, "ghl-v1", cfg.ProfileName)
	assert.Equal(t, "lead_export.xml", cfg.ExportPath)
	assert.Equal(t, "8080", cfg.RelayPort)
	assert.False(t, cfg.RunOnStart)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GHL_API_KEY", "key-1")
	t.Setenv("GHL_LOCATION_ID", "loc-1")
	t.Setenv("MAPPING_PROFILE", "webhook-v2")
	t.Setenv("DEDUP_DB_PATH", "/tmp/dedup.db")
	t.Setenv("RUN_EXPORT_ON_START", "true")
	t.Setenv("EXPORT_CRON", "@every 15m")

	cfg := Load()

	assert.Equal(t, "key-1", cfg.CRMAPIKey)
	assert.Equal(t, "loc-1", cfg.CRMLocationID)
	assert.Equal(t, "webhook-v2", cfg.ProfileName)
	assert.Equal(t, "/tmp/dedup.db", cfg.DedupDBPath)
	assert.True(t, cfg.RunOnStart)
	assert.Equal(t, "@every 15m", cfg.ExportCron)
}
