package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", c.Env)
	assert.Equal(t, 5000, c.HTTP.Port)
	assert.Equal(t, "mongodb://localhost:27017", c.Mongo.URI)
	assert.Equal(t, "safehaven", c.Mongo.Database)
	assert.Equal(t, 7, c.JWT.ExpiryDays)
	assert.Equal(t, "incident_events", c.Queue.Name)
	assert.Equal(t, "incident-photos", c.ObjectStore.Bucket)
	assert.Equal(t, "https://www.disify.com/api", c.Upstream.EmailCheckURL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_HTTP_PORT", "8081")
	t.Setenv("APP_MONGO_DATABASE", "safehaven_test")
	t.Setenv("APP_JWT_SECRET", "from-env")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, c.HTTP.Port)
	assert.Equal(t, "safehaven_test", c.Mongo.Database)
	assert.Equal(t, "from-env", c.JWT.Secret)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "env: production\nhttp:\n  port: 9000\njwt:\n  secret: from-file\n")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Env)
	assert.Equal(t, 9000, c.HTTP.Port)
	assert.Equal(t, "from-file", c.JWT.Secret)
	// untouched keys keep their defaults
	assert.Equal(t, 7, c.JWT.ExpiryDays)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
