package goNotes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		EnvSecretKey:         "super-secret",
		EnvAlgorithm:         "HS256",
		EnvAccessExpireMins:  "30",
		EnvRefreshExpireDays: "7",
	}
}

func TestConfigFromLookup(t *testing.T) {
	cfg, err := ConfigFromLookup(mapLookup(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, []byte("super-secret"), cfg.JWT.SecretKey)
	assert.Equal(t, "HS256", cfg.JWT.SigningMethod)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.Audit.Enabled)
}

func TestConfigFromLookupReportsEveryMissingVariable(t *testing.T) {
	_, err := ConfigFromLookup(mapLookup(map[string]string{EnvAlgorithm: "HS256"}))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, EnvSecretKey)
	assert.Contains(t, msg, EnvAccessExpireMins)
	assert.Contains(t, msg, EnvRefreshExpireDays)
	assert.NotContains(t, msg, EnvAlgorithm)
}

func TestConfigFromLookupRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		EnvAlgorithm:         "RS256",
		EnvAccessExpireMins:  "soon",
		EnvRefreshExpireDays: "-1",
		EnvLoginRateLimit:    "lots",
		EnvAuditEnabled:      "maybe",
		EnvPasswordAlgorithm: "sha1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			env := baseEnv()
			env[key] = value
			_, err := ConfigFromLookup(mapLookup(env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestConfigFromLookupOptionalValues(t *testing.T) {
	env := baseEnv()
	env[EnvAlgorithm] = "hs384"
	env[EnvTokenIssuer] = " notes "
	env[EnvPasswordAlgorithm] = "BCRYPT"
	env[EnvLoginRateLimit] = "3"
	env[EnvAuditEnabled] = "true"

	cfg, err := ConfigFromLookup(mapLookup(env))
	require.NoError(t, err)

	assert.Equal(t, "HS384", cfg.JWT.SigningMethod)
	assert.Equal(t, "notes", cfg.JWT.Issuer)
	assert.Equal(t, "bcrypt", cfg.Password.Algorithm)
	assert.Equal(t, 72, cfg.Password.MaxLength)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 3, cfg.RateLimit.MaxLoginAttempts)
	assert.True(t, cfg.Audit.Enabled)
}

func TestConfigFromLookupRefreshShorterThanAccess(t *testing.T) {
	env := baseEnv()
	env[EnvAccessExpireMins] = "2880"
	env[EnvRefreshExpireDays] = "1"

	_, err := ConfigFromLookup(mapLookup(env))
	require.Error(t, err)
}
