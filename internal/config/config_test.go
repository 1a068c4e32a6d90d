package config_test

import (
	"testing"
	"time"

	"snapshare/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := config.FromViper(newViper())

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 100*1024*1024, cfg.MaxUploadBytes)
	assert.Equal(t, []string{"localhost", "127.0.0.1"}, cfg.AllowedHosts)
	assert.Equal(t, "s3", cfg.Storage.Provider, "non-debug defaults to the blob store")
	assert.Equal(t, time.Hour, cfg.Storage.URLExpiration)
	assert.Equal(t, "media", cfg.Storage.Prefix)
}

func TestFromViper_DebugUsesLocalStorage(t *testing.T) {
	v := newViper()
	v.Set("DEBUG", true)

	cfg := config.FromViper(v)
	assert.Equal(t, "local", cfg.Storage.Provider)
}

func TestValidate(t *testing.T) {
	v := newViper()
	v.Set("DEBUG", true)
	v.Set("DATABASE_DRIVER", "sqlite")
	v.Set("DATABASE_DSN", "file::memory:")
	require.NoError(t, config.FromViper(v).Validate())

	// Production without a real secret or bucket is rejected.
	v = newViper()
	err := config.FromViper(v).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
	assert.Contains(t, err.Error(), "S3_BUCKET")

	v = newViper()
	v.Set("DEBUG", true)
	v.Set("DATABASE_DRIVER", "mysql")
	err = config.FromViper(v).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
}

func TestPostgresDSN(t *testing.T) {
	cfg := config.FromViper(newViper())
	assert.Equal(t,
		"host=localhost user=postgres password= dbname=snapshare port=5432 sslmode=require TimeZone=UTC",
		cfg.Database.PostgresDSN())

	cfg.Database.DSN = "postgres://u:p@db/x"
	assert.Equal(t, "postgres://u:p@db/x", cfg.Database.PostgresDSN())
}

func TestHostAllowed(t *testing.T) {
	cfg := &config.Config{AllowedHosts: []string{"localhost", ".azurewebsites.net"}}

	assert.True(t, cfg.HostAllowed("localhost"))
	assert.True(t, cfg.HostAllowed("snapshare.azurewebsites.net"))
	assert.True(t, cfg.HostAllowed("azurewebsites.net"))
	assert.False(t, cfg.HostAllowed("evil.example.com"))

	cfg.AllowedHosts = []string{"*"}
	assert.True(t, cfg.HostAllowed("anything"))

	cfg.AllowedHosts = nil
	assert.True(t, cfg.HostAllowed("anything"))
}
