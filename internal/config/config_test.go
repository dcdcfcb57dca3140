package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/storefront/internal/config"
)

const sampleConfig = `
env: "local"
http_server:
  address: "localhost:8080"
  timeout: "4s"
  idle_timeout: "60s"
database:
  host: "localhost"
  port: 5432
  user: "postgres"
  name: "storefront"
jwt:
  token_ttl: 60
migrations:
  path: "./migrations"
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMustLoadByPath_Success(t *testing.T) {
	// Устанавливаем обязательные переменные окружения
	t.Setenv("DB_PASSWORD", "mypassword")
	t.Setenv("JWT_SECRET", "mysecret")

	cfg := config.MustLoadByPath(writeTemp(t, "config.yaml", sampleConfig))

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "localhost:8080", cfg.HTTPServer.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 60*time.Second, cfg.HTTPServer.IdleTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "mypassword", cfg.Database.Password)
	assert.Equal(t, "storefront", cfg.Database.Name)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "mysecret", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.TTL())
	assert.Equal(t, "./migrations", cfg.Migrations.Path)
	assert.Equal(t, "migrations", cfg.Migrations.Table)
}

func TestMustLoadByPath_DotEnv(t *testing.T) {
	// godotenv не перезаписывает уже заданные переменные, поэтому начинаем с пустых
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("DB_PASSWORD")
	os.Unsetenv("JWT_SECRET")

	envFile := writeTemp(t, ".env", "DB_PASSWORD=fromdotenv\nJWT_SECRET=dotenvsecret\n")

	cfg := config.MustLoadByPath(writeTemp(t, "config.yaml", sampleConfig), envFile)
	assert.Equal(t, "fromdotenv", cfg.Database.Password)
	assert.Equal(t, "dotenvsecret", cfg.JWT.Secret)
}

func TestMustLoadByPath_MissingSecret(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("DB_PASSWORD")
	os.Unsetenv("JWT_SECRET")

	path := writeTemp(t, "config.yaml", sampleConfig)
	assert.Panics(t, func() {
		config.MustLoadByPath(path, filepath.Join(t.TempDir(), "missing.env"))
	})
}

func TestMustLoadByPath_FileNotFound(t *testing.T) {
	// Ожидаем панику, если файла не существует
	assert.Panics(t, func() {
		config.MustLoadByPath("non_existent_config.yaml")
	})
}
