package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points secrets at an empty dir so the host's /run/secrets never leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3001", cfg.Addr())
	assert.Equal(t, StoreTypeFile, cfg.StoreType)
	assert.Equal(t, "data/players", cfg.DataDir)
	assert.Equal(t, "http://localhost:8080/v1", cfg.AIBaseURL)
	assert.Equal(t, "sk-none", cfg.AIAPIKey)
	assert.Equal(t, "gpt-4", cfg.AIModel)
	assert.Equal(t, 0.8, cfg.AITemperature)
	assert.Equal(t, 500, cfg.AIMaxTokens)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.True(t, cfg.AutoSaveEnabled)
	assert.Equal(t, 3, cfg.AutoSaveIntervalChoices)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfigFromEnvAndSecrets(t *testing.T) {
	secrets := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(secrets, "db_password"), []byte("pg-pass\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(secrets, "ai_api_key"), []byte("sk-real"), 0o600))

	t.Setenv("STORE_TYPE", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("AI_API_KEY", "sk-env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("ENV", "production")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "pg-pass", cfg.DBPassword)
	assert.Equal(t, "sk-real", cfg.AIAPIKey, "secret wins over env")
	assert.Equal(t, "postgres://nihilism:pg-pass@db:5432/nihilism?sslmode=disable", cfg.GetDSN())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsDevelopment())

	for _, f := range cfg.LogFields() {
		assert.NotContains(t, f.String, "pg-pass")
		assert.NotContains(t, f.String, "sk-real")
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	isolate(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=4000\nAI_MODEL=llama3\n"), 0o600))
	// godotenv does not override variables that are already set
	t.Setenv("SERVER_PORT", "")
	os.Unsetenv("SERVER_PORT")
	t.Setenv("AI_MODEL", "")
	os.Unsetenv("AI_MODEL")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.ServerPort)
	assert.Equal(t, "llama3", cfg.AIModel)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreType:               StoreTypeFile,
			AIClientType:            AIClientOpenAI,
			AutoSaveEnabled:         true,
			AutoSaveIntervalChoices: 3,
			AIMaxTokens:             500,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"ollama upper case", func(c *Config) { c.AIClientType = "Ollama" }, ""},
		{"unknown store", func(c *Config) { c.StoreType = "s3" }, "STORE_TYPE"},
		{"unknown client", func(c *Config) { c.AIClientType = "bard" }, "AI_CLIENT_TYPE"},
		{"zero interval", func(c *Config) { c.AutoSaveIntervalChoices = 0 }, "AUTOSAVE_INTERVAL_CHOICES"},
		{"zero interval ignored when disabled", func(c *Config) {
			c.AutoSaveEnabled = false
			c.AutoSaveIntervalChoices = 0
		}, ""},
		{"no max tokens", func(c *Config) { c.AIMaxTokens = 0 }, "AI_MAX_TOKENS"},
		{"postgres without password", func(c *Config) { c.StoreType = StoreTypePostgres }, "db_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_TYPE", "tape")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
