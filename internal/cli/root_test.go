package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GeneralBots/botcoder/internal/config"
)

func exampleConfig(t *testing.T) *config.Config {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "configs", "botcoder.example.yaml"))
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	require.NoError(t, err)
	require.NotEmpty(t, buf.String())
}

func TestDoctorWithExampleConfig(t *testing.T) {
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	configPath, err := filepath.Abs(filepath.Join("..", "..", "configs", "botcoder.example.yaml"))
	require.NoError(t, err)
	require.FileExists(t, configPath)

	cmd.SetArgs([]string{"doctor", "--config", configPath})

	err = cmd.Execute()
	require.NoError(t, err)
	require.Contains(t, buf.String(), "Config OK")
	require.Contains(t, buf.String(), "Project root OK: ")
}

func TestBuildProviderRejectsUnknownType(t *testing.T) {
	cfg := exampleConfig(t)
	cfg.Provider.Type = "anthropic"

	_, err := buildProvider(cfg)
	require.Error(t, err)
}

func TestBuildProviderKnownTypes(t *testing.T) {
	cfg := exampleConfig(t)

	for _, typ := range []string{"openai", "ollama"} {
		cfg.Provider.Type = typ
		p, err := buildProvider(cfg)
		require.NoError(t, err)
		require.Equal(t, typ, p.Name())
	}

	cfg.Provider.Type = "azure"
	cfg.Provider.BaseURL = "https://example.openai.azure.com/openai/deployments/d"
	cfg.Provider.APIKey = "k"
	p, err := buildProvider(cfg)
	require.NoError(t, err)
	require.Equal(t, "azure", p.Name())
}
