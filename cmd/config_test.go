package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfig_Defaults(t *testing.T) {
	// GIVEN a directory with no config file and no env overrides
	t.Chdir(t.TempDir())

	cfg, err := loadAppConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Serve.Addr)
	assert.Equal(t, []string{"*"}, cfg.Serve.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Serve.ShutdownTimeout)
	assert.Equal(t, "http", cfg.MCP.Mode)
	assert.Equal(t, "http://localhost:8000", cfg.MCP.APIURL)
	require.NoError(t, validateConfig(&cfg.Serve))
	require.NoError(t, validateConfig(&cfg.MCP))
}

func TestLoadAppConfig_FileThenEnv(t *testing.T) {
	// GIVEN matchmaker.yaml in the working directory
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "matchmaker.yaml"), []byte(`
serve:
  addr: ":9000"
  model_path: models/m.zst
  write_timeout: 30s
mcp:
  mode: local
  model_path: models/m.zst
`), 0o644))

	// AND an env var overriding one of its keys
	t.Setenv("MATCHMAKER_SERVE_ADDR", "127.0.0.1:9100")

	cfg, err := loadAppConfig("")
	require.NoError(t, err)

	// THEN env beats the file and the file beats defaults
	assert.Equal(t, "127.0.0.1:9100", cfg.Serve.Addr)
	assert.Equal(t, "models/m.zst", cfg.Serve.ModelPath)
	assert.Equal(t, 30*time.Second, cfg.Serve.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Serve.ReadTimeout)
	assert.Equal(t, "local", cfg.MCP.Mode)
	require.NoError(t, validateConfig(&cfg.MCP))
}

func TestLoadAppConfig_ExplicitMissingFileFails(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := loadAppConfig("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidateConfig_MCP(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MCPConfig
		wantErr bool
	}{
		{"http with url", MCPConfig{Mode: "http", APIURL: "http://localhost:8000", Timeout: time.Second}, false},
		{"local with model", MCPConfig{Mode: "local", ModelPath: "m.zst", Timeout: time.Second}, false},
		{"http without url", MCPConfig{Mode: "http", Timeout: time.Second}, true},
		{"local without model", MCPConfig{Mode: "local", Timeout: time.Second}, true},
		{"unknown mode", MCPConfig{Mode: "grpc", APIURL: "http://x", Timeout: time.Second}, true},
		{"zero timeout", MCPConfig{Mode: "http", APIURL: "http://x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConfig_Serve(t *testing.T) {
	ok := ServeConfig{Addr: ":8000", ModelPath: "m.zst", ShutdownTimeout: time.Second}
	assert.NoError(t, validateConfig(&ok))

	noModel := ok
	noModel.ModelPath = ""
	assert.Error(t, validateConfig(&noModel))

	noShutdown := ok
	noShutdown.ShutdownTimeout = 0
	assert.Error(t, validateConfig(&noShutdown))
}
