package credentials

import (
	"context"
	"fmt"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

// DefaultVaultTimeout bounds a single secret read.
const DefaultVaultTimeout = 30 * time.Second

// VaultConfig locates the bearer token inside a Vault KV-v2 secret.
type VaultConfig struct {
	// Address is the Vault server address, e.g. "https://vault:8200".
	Address string `yaml:"address" json:"address"`

	// AuthToken authenticates the Vault client itself.
	AuthToken string `yaml:"authToken" json:"authToken"`

	// Mount is the KV-v2 mount path.
	Mount string `yaml:"mount" json:"mount"`

	// Path is the secret path under the mount.
	Path string `yaml:"path" json:"path"`

	// Field is the key inside the secret data holding the bearer token.
	Field string `yaml:"field" json:"field"`

	// Timeout bounds each read. Zero means DefaultVaultTimeout.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// VaultTokenProvider resolves the bearer token from a Vault KV-v2 secret.
type VaultTokenProvider struct {
	client  *vaultapi.Client
	config  *VaultConfig
	timeout time.Duration
}

// NewVaultTokenProvider builds a provider from cfg. The Vault connection is
// validated lazily, on the first Token call.
func NewVaultTokenProvider(cfg *VaultConfig) (*VaultTokenProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("vault config is nil")
	}
	if cfg.Mount == "" || cfg.Path == "" || cfg.Field == "" {
		return nil, fmt.Errorf("vault mount, path and field are required")
	}

	vaultCfg := vaultapi.DefaultConfig()
	if cfg.Address != "" {
		vaultCfg.Address = cfg.Address
	}
	client, err := vaultapi.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	if cfg.AuthToken != "" {
		client.SetToken(cfg.AuthToken)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultVaultTimeout
	}
	return &VaultTokenProvider{client: client, config: cfg, timeout: timeout}, nil
}

// Token implements Provider.
func (p *VaultTokenProvider) Token(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	secret, err := p.client.KVv2(p.config.Mount).Get(ctx, p.config.Path)
	if err != nil {
		return "", fmt.Errorf("read vault secret %s/%s: %w", p.config.Mount, p.config.Path, err)
	}
	raw, ok := secret.Data[p.config.Field]
	if !ok {
		return "", fmt.Errorf("vault secret %s/%s has no field %q", p.config.Mount, p.config.Path, p.config.Field)
	}
	token, ok := raw.(string)
	if !ok || token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// Insecure implements Provider.
func (p *VaultTokenProvider) Insecure() bool { return false }
