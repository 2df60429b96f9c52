package core

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultURL is the public ZB websocket endpoint.
const DefaultURL = "wss://api.zb.com:9999/websocket"

// DigestAlgorithm names the one-way hash applied to the secret key before it
// is used as the HMAC key.
type DigestAlgorithm string

const (
	// DigestMD5 hashes the secret key with MD5.
	DigestMD5 DigestAlgorithm = "md5"
	// DigestSHA1 hashes the secret key with SHA-1, as ZB's published Java SDK does.
	DigestSHA1 DigestAlgorithm = "sha1"
)

// Secret is a string that redacts itself when printed or marshaled.
type Secret string

// String returns a redacted placeholder for non-empty secrets.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString keeps %#v from leaking the value.
func (s Secret) GoString() string {
	if s == "" {
		return `""`
	}
	return `"[REDACTED]"`
}

// MarshalJSON implements json.Marshaler with the value redacted.
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte(`""`), nil
	}
	return []byte(`"[REDACTED]"`), nil
}

// MarshalYAML implements yaml.Marshaler with the value redacted.
func (s Secret) MarshalYAML() (any, error) {
	if s == "" {
		return "", nil
	}
	return "[REDACTED]", nil
}

// Reveal returns the raw secret value.
func (s Secret) Reveal() string {
	return string(s)
}

// Credentials holds the account identity used to sign private commands.
type Credentials struct {
	// AccessKey is the public key sent with every signed command.
	AccessKey string `json:"access_key" yaml:"access_key" mapstructure:"access_key"`
	// SecretKey is never transmitted; only signatures derived from it are.
	SecretKey Secret `json:"secret_key" yaml:"secret_key" mapstructure:"secret_key"`
	// SafePassword is the funds password required by withdrawal commands.
	SafePassword Secret `json:"safe_password,omitempty" yaml:"safe_password,omitempty" mapstructure:"safe_password"`
}

// MaskedAccessKey returns the access key with its middle hidden, for logs.
func (c *Credentials) MaskedAccessKey() string {
	if c == nil {
		return ""
	}
	return maskKey(c.AccessKey)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// Config contains all configuration options for a client session.
type Config struct {
	URL         string       `json:"url" yaml:"url" mapstructure:"url" validate:"required"`
	Credentials *Credentials `json:"credentials,omitempty" yaml:"credentials,omitempty" mapstructure:"credentials"`

	// InsecureSkipVerify disables TLS certificate validation for wss endpoints.
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
	// HandshakeTimeout bounds how long Connect waits for the websocket upgrade.
	HandshakeTimeout time.Duration `json:"handshake_timeout" yaml:"handshake_timeout" mapstructure:"handshake_timeout" validate:"min=1ms"`

	DigestAlgorithm DigestAlgorithm `json:"digest_algorithm" yaml:"digest_algorithm" mapstructure:"digest_algorithm" validate:"oneof=md5 sha1"`

	// RateLimitRequests of zero disables outbound throttling.
	RateLimitRequests int           `json:"rate_limit_requests" yaml:"rate_limit_requests" mapstructure:"rate_limit_requests" validate:"min=0"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" yaml:"rate_limit_period" mapstructure:"rate_limit_period" validate:"min=0"`

	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config pointing at the public endpoint with a 10s
// handshake timeout, MD5 secret digest, no throttling and info logging.
func DefaultConfig() *Config {
	return &Config{
		URL:              DefaultURL,
		HandshakeTimeout: 10 * time.Second,
		DigestAlgorithm:  DigestMD5,
		RateLimitPeriod:  time.Second,
		LogLevel:         "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.RateLimitRequests > 0 && c.RateLimitPeriod <= 0 {
		return errors.New("RateLimitPeriod must be positive when RateLimitRequests is set")
	}
	return nil
}

// WithURL sets the endpoint and returns the config for chaining.
func (c *Config) WithURL(url string) *Config {
	c.URL = url
	return c
}

// WithCredentials sets the account credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithInsecureSkipVerify toggles TLS certificate validation and returns the config for chaining.
func (c *Config) WithInsecureSkipVerify(insecure bool) *Config {
	c.InsecureSkipVerify = insecure
	return c
}

// WithHandshakeTimeout sets the connect timeout and returns the config for chaining.
func (c *Config) WithHandshakeTimeout(timeout time.Duration) *Config {
	c.HandshakeTimeout = timeout
	return c
}

// WithDigestAlgorithm selects the secret key digest and returns the config for chaining.
func (c *Config) WithDigestAlgorithm(alg DigestAlgorithm) *Config {
	c.DigestAlgorithm = alg
	return c
}

// WithRateLimit sets the outbound throttle and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}
