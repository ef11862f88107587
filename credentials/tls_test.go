package credentials

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTLSConfig_NilBuildsDefaults(t *testing.T) {
	var c *TLSConfig

	cfg, err := c.Build()
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Empty(t, cfg.ServerName)
}

func TestTLSConfig_ServerNameAndSkipVerify(t *testing.T) {
	c := &TLSConfig{ServerName: "logging.example.com", InsecureSkipVerify: true}

	cfg, err := c.Build()
	require.NoError(t, err)
	assert.Equal(t, "logging.example.com", cfg.ServerName)
	assert.True(t, cfg.InsecureSkipVerify)
}

func TestTLSConfig_MissingCAFile(t *testing.T) {
	c := &TLSConfig{CAFile: filepath.Join(t.TempDir(), "missing.pem")}

	_, err := c.Build()
	assert.Error(t, err)
}

func TestTLSConfig_InvalidCAFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

	c := &TLSConfig{CAFile: path}

	_, err := c.Build()
	assert.Error(t, err)
}

func TestTLSConfig_CertWithoutKeyFails(t *testing.T) {
	c := &TLSConfig{CertFile: "client.pem"}

	_, err := c.Build()
	assert.Error(t, err)
}
