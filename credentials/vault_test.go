package credentials

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVaultTokenProvider_NilConfig(t *testing.T) {
	_, err := NewVaultTokenProvider(nil)
	assert.Error(t, err)
}

func TestNewVaultTokenProvider_MissingLocation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *VaultConfig
	}{
		{name: "missing mount", cfg: &VaultConfig{Path: "logging", Field: "token"}},
		{name: "missing path", cfg: &VaultConfig{Mount: "secret", Field: "token"}},
		{name: "missing field", cfg: &VaultConfig{Mount: "secret", Path: "logging"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVaultTokenProvider(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewVaultTokenProvider_Defaults(t *testing.T) {
	p, err := NewVaultTokenProvider(&VaultConfig{
		Address:   "https://vault.example.com:8200",
		AuthToken: "root",
		Mount:     "secret",
		Path:      "logging/client",
		Field:     "token",
	})
	require.NoError(t, err)

	assert.False(t, p.Insecure())
	assert.Equal(t, DefaultVaultTimeout, p.timeout)
}

func TestNewVaultTokenProvider_CustomTimeout(t *testing.T) {
	p, err := NewVaultTokenProvider(&VaultConfig{
		Mount:   "secret",
		Path:    "logging/client",
		Field:   "token",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, p.timeout)
}
