package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp keeps a stray .env in the working directory out of the test.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.Addr)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "memory", cfg.Vector.Backend)
	assert.Equal(t, 4, cfg.RAG.TopK)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Empty(t, cfg.OpenAI.APIKey)
	assert.False(t, cfg.App.Production())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("MULTITOOL_APP_ADDR", ":9000")
	t.Setenv("MULTITOOL_VECTOR_BACKEND", "chromem")
	t.Setenv("MULTITOOL_RAG_TOP_K", "7")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.App.Addr)
	assert.Equal(t, "chromem", cfg.Vector.Backend)
	assert.Equal(t, 7, cfg.RAG.TopK)
	assert.Equal(t, "sk-fallback", cfg.OpenAI.APIKey)

	t.Setenv("MULTITOOL_OPENAI_API_KEY", "sk-prefixed")
	cfg, err = Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-prefixed", cfg.OpenAI.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MULTITOOL_LLM_PROVIDER=ollama\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("MULTITOOL_LLM_PROVIDER") })

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
}

func TestLoad_FlagsWin(t *testing.T) {
	chdirTemp(t)
	t.Setenv("MULTITOOL_APP_ADDR", ":9000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", ":8080", "")
	flags.String("resources", "", "")
	require.NoError(t, flags.Parse([]string{"--addr", ":7000", "--resources", "/srv/docs"}))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.App.Addr)
	assert.Equal(t, "/srv/docs", cfg.Resources.Dir)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "multitool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rag:\n  top_k: 9\nvector:\n  backend: sqlite\n"), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	require.NoError(t, flags.Parse([]string{"--config", path}))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.RAG.TopK)
	assert.Equal(t, "sqlite", cfg.Vector.Backend)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	t.Setenv("MULTITOOL_LLM_PROVIDER", "anthropic")
	t.Setenv("MULTITOOL_RAG_CHUNK_OVERLAP", "5000")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
	assert.Contains(t, err.Error(), "rag.chunk_overlap")
}
