// Package config loads the client configuration from defaults, an optional
// YAML file, a .env file, ZB_ environment variables and command line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"zbws/pkg/core"
)

// EnvPrefix is prepended to every environment variable, e.g. ZB_URL.
const EnvPrefix = "ZB"

const defaultEnvFile = ".env"

// Keys understood by Load.
const (
	KeyURL                = "url"
	KeyAccessKey          = "credentials.access_key"
	KeySecretKey          = "credentials.secret_key"
	KeySafePassword       = "credentials.safe_password"
	KeyInsecureSkipVerify = "insecure_skip_verify"
	KeyHandshakeTimeout   = "handshake_timeout"
	KeyDigestAlgorithm    = "digest_algorithm"
	KeyRateLimitRequests  = "rate_limit_requests"
	KeyRateLimitPeriod    = "rate_limit_period"
	KeyLogLevel           = "log_level"
)

// flag name -> config key
var flagKeys = map[string]string{
	"url":                  KeyURL,
	"access-key":           KeyAccessKey,
	"secret-key":           KeySecretKey,
	"safe-password":        KeySafePassword,
	"insecure-skip-verify": KeyInsecureSkipVerify,
	"handshake-timeout":    KeyHandshakeTimeout,
	"digest-algorithm":     KeyDigestAlgorithm,
	"rate-limit-requests":  KeyRateLimitRequests,
	"rate-limit-period":    KeyRateLimitPeriod,
	"log-level":            KeyLogLevel,
}

// short aliases accepted next to the ZB_CREDENTIALS_* names
var envAliases = map[string]string{
	KeyAccessKey:    EnvPrefix + "_ACCESS_KEY",
	KeySecretKey:    EnvPrefix + "_SECRET_KEY",
	KeySafePassword: EnvPrefix + "_SAFE_PASSWORD",
}

// Options tells Load where to look.
type Options struct {
	// File is an optional YAML config file.
	File string
	// EnvFile is loaded into the environment before reading variables. Empty
	// means ".env" if it exists.
	EnvFile string
	// Flags, when set, overrides values with the flags the user changed.
	Flags *pflag.FlagSet
}

// RegisterFlags defines the config flags. Defaults are left to Load so
// unset flags do not shadow the file or the environment.
func RegisterFlags(flags *pflag.FlagSet) {
	d := core.DefaultConfig()
	flags.String("config", "", "path to a YAML config file")
	flags.String("env-file", "", "path to a .env file (default .env if present)")
	flags.String("url", d.URL, "websocket endpoint")
	flags.String("access-key", "", "API access key")
	flags.String("secret-key", "", "API secret key")
	flags.String("safe-password", "", "funds password for withdrawal commands")
	flags.Bool("insecure-skip-verify", false, "accept any TLS certificate")
	flags.Duration("handshake-timeout", d.HandshakeTimeout, "connect and upgrade timeout")
	flags.String("digest-algorithm", string(d.DigestAlgorithm), "secret key digest: md5 or sha1")
	flags.Int("rate-limit-requests", 0, "max commands per period, 0 disables")
	flags.Duration("rate-limit-period", d.RateLimitPeriod, "rate limit period")
	flags.String("log-level", d.LogLevel, "debug, info, warn or error")
}

// Load builds and validates a core.Config.
func Load(opts Options) (*core.Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, core.NewError(core.ErrorTypeConfiguration, "load config", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, core.NewError(core.ErrorTypeConfiguration, "load config", err)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, core.NewError(core.ErrorTypeConfiguration, "load config", fmt.Errorf("read %s: %w", opts.File, err))
		}
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, core.NewError(core.ErrorTypeConfiguration, "load config", err)
		}
	}

	var cfg core.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.NewError(core.ErrorTypeConfiguration, "load config", fmt.Errorf("unable to decode config: %w", err))
	}
	if c := cfg.Credentials; c != nil && c.AccessKey == "" && c.SecretKey == "" && c.SafePassword == "" {
		cfg.Credentials = nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, core.NewError(core.ErrorTypeConfiguration, "load config", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := core.DefaultConfig()
	v.SetDefault(KeyURL, d.URL)
	v.SetDefault(KeyInsecureSkipVerify, d.InsecureSkipVerify)
	v.SetDefault(KeyHandshakeTimeout, d.HandshakeTimeout)
	v.SetDefault(KeyDigestAlgorithm, string(d.DigestAlgorithm))
	v.SetDefault(KeyRateLimitRequests, d.RateLimitRequests)
	v.SetDefault(KeyRateLimitPeriod, d.RateLimitPeriod)
	v.SetDefault(KeyLogLevel, d.LogLevel)
}

func bindEnv(v *viper.Viper) error {
	for _, key := range []string{KeyAccessKey, KeySecretKey, KeySafePassword} {
		long := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, long, envAliases[key]); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Dump writes cfg as YAML. Secrets are redacted and the access key masked.
func Dump(w io.Writer, cfg *core.Config) error {
	out := *cfg
	if cfg.Credentials != nil {
		creds := *cfg.Credentials
		creds.AccessKey = creds.MaskedAccessKey()
		out.Credentials = &creds
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// LookupString returns the value of a string flag, or "" when flags is nil or
// the flag is not defined.
func LookupString(flags *pflag.FlagSet, name string) string {
	if flags == nil {
		return ""
	}
	s, err := flags.GetString(name)
	if err != nil {
		return ""
	}
	return s
}
