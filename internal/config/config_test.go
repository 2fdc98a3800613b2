package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORAGE_DRIVER", "ID_STRATEGY", "DEFAULT_USER_ID", "ADMIN_USER_IDS", "STORAGE_POLL_INTERVAL_MS"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "uuid", cfg.App.IDStrategy)
	assert.Equal(t, "user-1", cfg.App.DefaultUserID)
	assert.Empty(t, cfg.App.AdminUserIDs)
	assert.Equal(t, time.Second, cfg.Storage.PollInterval)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "demo")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("ID_STRATEGY", "snowflake")
	t.Setenv("SNOWFLAKE_NODE", "7")
	t.Setenv("ADMIN_USER_IDS", "admin, ops ,,")
	t.Setenv("STORAGE_POLL_INTERVAL_MS", "250")
	t.Setenv("METRICS_ENABLED", "no")

	cfg := Load()
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "demo", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.PathStyle)
	assert.Equal(t, int64(7), cfg.App.SnowflakeNode)
	assert.Equal(t, []string{"admin", "ops"}, cfg.App.AdminUserIDs)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.PollInterval)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", d.DSN())
	assert.Equal(t, "postgres://u:p@db:5433/n?sslmode=disable", d.URL())
}
