package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.AppHost)
	assert.Equal(t, "Administrators", cfg.AdminGroup)
	assert.True(t, cfg.AllowAnonymousComplaints)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 30*time.Second, cfg.ProfileCacheTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "complaint.scope.invalidate", cfg.Redis.ScopeChannel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("ALLOW_ANONYMOUS_COMPLAINTS", "false")
	t.Setenv("ADMIN_GROUP", "Administradores")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("PROFILE_CACHE_TTL", "1m")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.False(t, cfg.AllowAnonymousComplaints)
	assert.Equal(t, "Administradores", cfg.AdminGroup)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Minute, cfg.ProfileCacheTTL)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"ALLOW_ANONYMOUS_COMPLAINTS": "maybe",
		"MAX_UPLOAD_BYTES":           "ten",
		"JWT_TTL":                    "forever",
		"REDIS_DB":                   "x",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_Production(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_PASSWORD", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "s3cret", cfg.SigningSecret())
}

func TestDatabaseURL_EscapesPassword(t *testing.T) {
	cfg := &Config{}
	cfg.DB.User = "u"
	cfg.DB.Password = "p@ss word"
	cfg.DB.Host = "db"
	cfg.DB.Port = "5432"
	cfg.DB.Database = "complaints"
	cfg.DB.SSLMode = "disable"
	assert.Equal(t, "postgres://u:p%40ss+word@db:5432/complaints?sslmode=disable", cfg.DatabaseURL())
}
