package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOST", "PORT", "DATA_DIR", "STORE_BACKEND", "ALLOWED_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT", "LISTS", "POSTGRES_DSN",
		"S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_PREFIX", "S3_PATH_STYLE",
		"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	xdgDir := filepath.Join(t.TempDir(), "xdg")
	t.Setenv("XDG_DATA_HOME", xdgDir)

	c := Load()
	assert.Equal(t, "0.0.0.0:8080", c.Addr())
	assert.Equal(t, filepath.Join(xdgDir, "gwconsole"), c.DataDir)
	assert.Equal(t, "json", c.Backend)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, []string{"radius-servers", "sip-accounts", "sip-trunks", "vpn-accounts"}, c.ListNames())
	assert.NoError(t, c.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("STORE_BACKEND", "s3")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LISTS", "sip-trunks,vpn-accounts,sip-trunks")
	t.Setenv("S3_BUCKET", "gw")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("S3_PREFIX", "site-a/")

	c := Load()
	require.NoError(t, c.Validate())
	assert.Equal(t, "0.0.0.0:9000", c.Addr())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, []string{"sip-trunks", "vpn-accounts"}, c.ListNames())

	opts := c.StoreOptions()
	assert.Equal(t, dir, opts.DataDir)
	assert.Equal(t, "gw", opts.S3.Bucket)
	assert.Equal(t, "site-a/", opts.S3.Prefix)
	assert.True(t, opts.S3.PathStyle)
	assert.Equal(t, "us-east-1", opts.S3.Region)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DIR", t.TempDir())

	c := Load()
	c.LogFormat = "xml"
	assert.Error(t, c.Validate())

	c = Load()
	c.Lists = []string{"vpn-accounts", "fax-lines"}
	assert.ErrorContains(t, c.Validate(), "fax-lines")

	c = Load()
	c.Lists = nil
	assert.Error(t, c.Validate())

	c = Load()
	c.Backend = "s3"
	assert.ErrorContains(t, c.Validate(), "S3_BUCKET")
}
