package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFillsAllFields(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "folio", cfg.Name)
	assert.Equal(t, 3, cfg.Opts.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.Opts.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.Opts.ReceiveTimeout)
}

func TestLoadFillsMissingFieldsFromDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: folio-dev
opts:
  endpoint: "folio://:secret@localhost:6379/2"
  poolSize: 5
idPrefix: "p:"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "folio-dev", cfg.Name)
	assert.Equal(t, 5, cfg.Opts.PoolSize)
	assert.Equal(t, 30*time.Second, cfg.Opts.ReceiveTimeout, "unset field falls back to default")
	assert.Equal(t, "p:", cfg.IDPrefix)
}

func TestParseEndpoint(t *testing.T) {
	ep, err := ParseEndpoint("folio://:secret@localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, "folio", ep.Scheme)
	assert.Equal(t, "localhost:6379", ep.Host)
	assert.Equal(t, "secret", ep.Password)
	assert.Equal(t, 2, ep.DB)
}

func TestParseEndpointIgnoresNonNumericPath(t *testing.T) {
	ep, err := ParseEndpoint("folio://localhost:6379/not-a-number")
	require.NoError(t, err)
	assert.Equal(t, 0, ep.DB)
}

func TestParseEndpointRejectsMissingHost(t *testing.T) {
	_, err := ParseEndpoint("folio:///0")
	assert.Error(t, err)
}
