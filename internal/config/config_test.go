package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envMap はテスト用の環境変数を返すlookup関数を作る。
func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := load("", envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, DefaultFrontendURL, cfg.FrontendURL)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.Debug())
	assert.False(t, cfg.Upstream.Configured())
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
env: staging
port: "9000"
db_path: /tmp/asr.db
upstream:
  url: https://asr.example.com/infer
  token: file-token
  timeout: 5s
`)

	cfg, err := load(path, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "/tmp/asr.db", cfg.DBPath)
	assert.Equal(t, DefaultFrontendURL, cfg.FrontendURL, "unset keys keep their defaults")
	assert.Equal(t, "https://asr.example.com/infer", cfg.Upstream.URL)
	assert.Equal(t, "file-token", cfg.Upstream.Token)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.Upstream.Configured())
	assert.False(t, cfg.Debug())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
env: staging
upstream:
  url: https://file.example.com
  token: file-token
`)

	cfg, err := load(path, envMap(map[string]string{
		"APP_ENV":          "production",
		"PORT":             "8080",
		"BHASHINI_ASR_URL": "https://env.example.com",
		"BHASHINI_TOKEN":   "env-token",
		"UPSTREAM_TIMEOUT": "1m",
		"FRONTEND_URL":     "https://app.example.com",
		"LOG_FILE":         "/var/log/gateway.log",
		"DB_PATH":          "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://env.example.com", cfg.Upstream.URL)
	assert.Equal(t, "env-token", cfg.Upstream.Token)
	assert.Equal(t, time.Minute, cfg.Upstream.Timeout)
	assert.Equal(t, "https://app.example.com", cfg.FrontendURL)
	assert.Equal(t, "/var/log/gateway.log", cfg.LogFile)
	assert.Equal(t, DefaultDBPath, cfg.DBPath, "empty env values are ignored")
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(t *testing.T) string
		env  map[string]string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.yaml") },
		},
		{
			name: "invalid yaml",
			path: func(t *testing.T) string { return writeFile(t, "port: [unclosed") },
		},
		{
			name: "invalid timeout",
			path: func(*testing.T) string { return "" },
			env:  map[string]string{"UPSTREAM_TIMEOUT": "soon"},
		},
		{
			name: "negative timeout",
			path: func(*testing.T) string { return "" },
			env:  map[string]string{"UPSTREAM_TIMEOUT": "-1s"},
		},
		{
			name: "invalid port",
			path: func(*testing.T) string { return "" },
			env:  map[string]string{"PORT": "http"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := load(tt.path(t), envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestUpstream_TokenInfo(t *testing.T) {
	t.Parallel()

	sign := func(t *testing.T, claims jwt.MapClaims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unknown-key"))
		require.NoError(t, err)
		return token
	}

	t.Run("user_id and role are read without verification", func(t *testing.T) {
		t.Parallel()

		u := Upstream{Token: sign(t, jwt.MapClaims{"user_id": "68ea7040", "role": "student"})}
		info := u.TokenInfo()

		assert.True(t, info.IsJWT)
		assert.Equal(t, "68ea7040", info.Subject)
		assert.Equal(t, "student", info.Role)
		assert.True(t, info.ExpiresAt.IsZero())
		assert.False(t, info.Expired(time.Now()))
	})

	t.Run("sub and exp are used", func(t *testing.T) {
		t.Parallel()

		exp := time.Now().Add(-time.Hour).Truncate(time.Second)
		u := Upstream{Token: sign(t, jwt.MapClaims{"sub": "svc", "exp": exp.Unix()})}
		info := u.TokenInfo()

		assert.Equal(t, "svc", info.Subject)
		assert.True(t, info.ExpiresAt.Equal(exp))
		assert.True(t, info.Expired(time.Now()))
	})

	t.Run("opaque token is not a JWT", func(t *testing.T) {
		t.Parallel()

		info := Upstream{Token: "plain-api-key"}.TokenInfo()
		assert.False(t, info.IsJWT)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, TokenInfo{}, Upstream{}.TokenInfo())
	})
}
