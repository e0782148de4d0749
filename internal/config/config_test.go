package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres://u:p@db:5432/x?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, UploadProviderHTTP, cfg.UploadProvider)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxImageBytes())
	assert.Equal(t, int64(50*1024*1024), cfg.MaxVideoBytes())
	assert.Equal(t, 30*time.Minute, cfg.PaymentContextTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_GCSRequiresBucket(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("UPLOAD_PROVIDER", UploadProviderGCS)
	t.Setenv("GCS_BUCKET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "pg")
	t.Setenv("POSTGRESQL_USER", "portal")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "portal")

	assert.Equal(t, "postgres://portal:p%40ss@pg:5432/portal?sslmode=disable", getDatabaseURL())
}
