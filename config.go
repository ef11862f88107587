package logrpc

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/logrpc/credentials"
	"github.com/vyrodovalexey/logrpc/executor"
	"github.com/vyrodovalexey/logrpc/retry"
)

// Default message size bounds.
const (
	DefaultMaxRecvMsgSize = 4 * 1024 * 1024 // 4 MB
	DefaultMaxSendMsgSize = 4 * 1024 * 1024 // 4 MB
)

// Duration wraps time.Duration so configuration files can use human-readable
// strings ("30s", "5m", "1h30m"). An empty string unmarshals to zero.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	duration, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// RetryConfig is the file-loadable shape of the retry policy.
type RetryConfig struct {
	MaxRetries     int      `yaml:"maxRetries,omitempty" json:"maxRetries,omitempty"`
	InitialBackoff Duration `yaml:"initialBackoff,omitempty" json:"initialBackoff,omitempty"`
	MaxBackoff     Duration `yaml:"maxBackoff,omitempty" json:"maxBackoff,omitempty"`
	BackoffFactor  float64  `yaml:"backoffFactor,omitempty" json:"backoffFactor,omitempty"`
	Jitter         float64  `yaml:"jitter,omitempty" json:"jitter,omitempty"`
}

// Config configures a Client. The zero value is not usable: Target and a
// credential source are required. Fields tagged yaml can come from a file via
// LoadConfig; the untagged fields are wired in code.
type Config struct {
	// Target is the address of the logging API, e.g.
	// "logging.example.com:443" or "localhost:50051" for tests.
	Target string `yaml:"target" json:"target"`

	// UserAgent is sent with every call.
	UserAgent string `yaml:"userAgent,omitempty" json:"userAgent,omitempty"`

	// Workers sets the executor pool size. Zero means the default.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`

	// MaxRecvMsgSize and MaxSendMsgSize bound message sizes in bytes.
	MaxRecvMsgSize int `yaml:"maxRecvMsgSize,omitempty" json:"maxRecvMsgSize,omitempty"`
	MaxSendMsgSize int `yaml:"maxSendMsgSize,omitempty" json:"maxSendMsgSize,omitempty"`

	// Token configures a static bearer token credential source.
	Token string `yaml:"token,omitempty" json:"token,omitempty"`

	// Vault configures a Vault-backed credential source. Ignored when Token
	// or Credentials is set.
	Vault *credentials.VaultConfig `yaml:"vault,omitempty" json:"vault,omitempty"`

	// TLS is the TLS material for secure channels.
	TLS *credentials.TLSConfig `yaml:"tls,omitempty" json:"tls,omitempty"`

	// Retry tunes the policy broadcast across all operations.
	Retry RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty"`

	// WriteRateLimit caps WriteLogEntries calls per second. Zero disables
	// client-side throttling. WriteRateBurst defaults to 1 when a limit is
	// set.
	WriteRateLimit float64 `yaml:"writeRateLimit,omitempty" json:"writeRateLimit,omitempty"`
	WriteRateBurst int     `yaml:"writeRateBurst,omitempty" json:"writeRateBurst,omitempty"`

	// Credentials overrides Token and Vault with an explicit provider. Use
	// credentials.NoCredentials to force a plaintext channel.
	Credentials credentials.Provider `yaml:"-" json:"-"`

	// RetryPolicy overrides Retry with a fully built policy.
	RetryPolicy *retry.Policy `yaml:"-" json:"-"`

	// ExecutorFactory supplies and takes back the executor pool. Nil means
	// the default factory.
	ExecutorFactory executor.Factory `yaml:"-" json:"-"`

	// Logger defaults to a no-op logger.
	Logger *zap.Logger `yaml:"-" json:"-"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks required fields and normalizes defaults.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target is required")
	}
	if c.Credentials == nil && c.Token == "" && c.Vault == nil {
		return fmt.Errorf("a credential source is required (set Credentials, Token or Vault; use credentials.NoCredentials for plaintext)")
	}
	if c.Workers < 0 {
		c.Workers = 0
	}
	if c.MaxRecvMsgSize <= 0 {
		c.MaxRecvMsgSize = DefaultMaxRecvMsgSize
	}
	if c.MaxSendMsgSize <= 0 {
		c.MaxSendMsgSize = DefaultMaxSendMsgSize
	}
	if c.WriteRateLimit > 0 && c.WriteRateBurst <= 0 {
		c.WriteRateBurst = 1
	}
	return nil
}

// credentialProvider resolves the configured credential source.
func (c *Config) credentialProvider() (credentials.Provider, error) {
	if c.Credentials != nil {
		return c.Credentials, nil
	}
	if c.Token != "" {
		return credentials.StaticToken{Value: c.Token}, nil
	}
	return credentials.NewVaultTokenProvider(c.Vault)
}

// retryPolicy resolves the configured retry policy.
func (c *Config) retryPolicy() *retry.Policy {
	if c.RetryPolicy != nil {
		return c.RetryPolicy
	}
	p := retry.DefaultPolicy()
	if c.Retry.MaxRetries > 0 {
		p.MaxRetries = c.Retry.MaxRetries
	}
	if c.Retry.InitialBackoff > 0 {
		p.InitialBackoff = c.Retry.InitialBackoff.Duration()
	}
	if c.Retry.MaxBackoff > 0 {
		p.MaxBackoff = c.Retry.MaxBackoff.Duration()
	}
	if c.Retry.BackoffFactor > 0 {
		p.BackoffFactor = c.Retry.BackoffFactor
	}
	if c.Retry.Jitter > 0 {
		p.Jitter = c.Retry.Jitter
	}
	return p
}

// logger returns the configured logger or a no-op one.
func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

// executorFactory returns the configured factory or the default.
func (c *Config) executorFactory() executor.Factory {
	if c.ExecutorFactory != nil {
		return c.ExecutorFactory
	}
	return executor.NewFactory(c.Workers)
}
