package goNotes

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goNotes/jwt"
	"github.com/MrEthical07/goNotes/password"
)

// Environment variable names read by ConfigFromEnv.
const (
	EnvSecretKey         = "SECRET_KEY"
	EnvAlgorithm         = "ALGORITHM"
	EnvAccessExpireMins  = "ACCESS_TOKEN_EXPIRE_MINUTES"
	EnvRefreshExpireDays = "REFRESH_TOKEN_EXPIRE_DAYS"
	EnvTokenIssuer       = "TOKEN_ISSUER"
	EnvPasswordAlgorithm = "PASSWORD_HASH_ALGORITHM"
	EnvLoginRateLimit    = "LOGIN_RATE_LIMIT"
	EnvAuditEnabled      = "AUDIT_ENABLED"
)

// ConfigFromEnv builds a Config from DefaultConfig and the process
// environment. See [ConfigFromLookup].
func ConfigFromEnv() (Config, error) {
	return ConfigFromLookup(os.LookupEnv)
}

// ConfigFromLookup builds a Config from DefaultConfig and the given lookup.
// SECRET_KEY, ALGORITHM, ACCESS_TOKEN_EXPIRE_MINUTES and
// REFRESH_TOKEN_EXPIRE_DAYS are required; every missing or malformed value is
// reported in the returned error.
func ConfigFromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	var errs []error

	required := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
			return "", false
		}
		return v, true
	}
	positiveInt := func(key, raw string) (int, bool) {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive integer, got %q", key, raw))
			return 0, false
		}
		return n, true
	}

	if v, ok := required(EnvSecretKey); ok {
		cfg.JWT.SecretKey = []byte(v)
	}
	if v, ok := required(EnvAlgorithm); ok {
		m, err := jwt.ParseSigningMethod(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvAlgorithm, err))
		} else {
			cfg.JWT.SigningMethod = string(m)
		}
	}
	if v, ok := required(EnvAccessExpireMins); ok {
		if n, ok := positiveInt(EnvAccessExpireMins, v); ok {
			cfg.JWT.AccessTTL = time.Duration(n) * time.Minute
		}
	}
	if v, ok := required(EnvRefreshExpireDays); ok {
		if n, ok := positiveInt(EnvRefreshExpireDays, v); ok {
			cfg.JWT.RefreshTTL = time.Duration(n) * 24 * time.Hour
		}
	}

	if v, ok := lookup(EnvTokenIssuer); ok {
		cfg.JWT.Issuer = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPasswordAlgorithm); ok && strings.TrimSpace(v) != "" {
		alg := password.Algorithm(strings.ToLower(strings.TrimSpace(v)))
		switch alg {
		case password.AlgorithmArgon2id:
			cfg.Password.Algorithm = string(alg)
		case password.AlgorithmBcrypt:
			cfg.Password.Algorithm = string(alg)
			cfg.Password.MaxLength = 72
		default:
			errs = append(errs, fmt.Errorf("%s must be argon2id or bcrypt, got %q", EnvPasswordAlgorithm, v))
		}
	}
	if v, ok := lookup(EnvLoginRateLimit); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s must be a non-negative integer, got %q", EnvLoginRateLimit, v))
		} else if n > 0 {
			cfg.RateLimit.Enabled = true
			cfg.RateLimit.MaxLoginAttempts = n
		}
	}
	if v, ok := lookup(EnvAuditEnabled); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be a boolean, got %q", EnvAuditEnabled, v))
		} else {
			cfg.Audit.Enabled = b
		}
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("configuration: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration: %w", err)
	}
	return cfg, nil
}
