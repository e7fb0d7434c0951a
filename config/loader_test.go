package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Providers.OpenAIAPIKey = "sk-test"
	cfg.Providers.CartesiaAPIKey = "ck-test"
	cfg.Language.DefaultVoice = "v-default"
	cfg.Language.Voices = map[string]string{"en": "v-en", "hi": "v-hi"}
	cfg.Language.Supported = []string{"en", "hi"}
	return cfg
}

func TestValidate_MissingCredentialsIsFatal(t *testing.T) {
	cfg := DefaultConfig()

	_, err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "CARTESIA_API_KEY")
}

func TestValidate_MissingVoiceMappingIsWarning(t *testing.T) {
	cfg := validConfig()
	cfg.Language.Supported = []string{"en", "hi", "ta"}

	warnings, err := cfg.Validate()
	require.NoError(t, err)

	found := false
	for _, w := range warnings {
		if strings.Contains(w, `"ta"`) {
			found = true
		}
	}
	assert.True(t, found, "expected warning for unmapped language ta, got %v", warnings)
}

func TestValidate_OverlapMustBeSmallerThanChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.RAG.ChunkSize = 100
	cfg.RAG.ChunkOverlap = 100

	_, err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, "en", cfg.Language.Default)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
rag:
  chunk_size: 500
  top_k: 5
language:
  default: hi
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("DEFAULT_LANGUAGE", "ta")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	// YAML 覆盖默认值
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 5, cfg.RAG.TopK)
	// 环境变量覆盖 YAML
	assert.Equal(t, "ta", cfg.Language.Default)
	assert.Equal(t, "sk-env", cfg.Providers.OpenAIAPIKey)
}

func TestLoad_MissingConfigFileFallsBack(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
}

func TestLoad_PerLanguageVoiceEnv(t *testing.T) {
	t.Setenv("SUPPORTED_LANGUAGES", "en,hi")
	t.Setenv("CARTESIA_VOICE_ID", "v-default")
	t.Setenv("CARTESIA_VOICE_ID_HI", "v-hindi")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "hi"}, cfg.Language.Supported)
	assert.Equal(t, "v-hindi", cfg.Language.Voices["hi"])
	assert.Equal(t, "v-default", cfg.Language.VoiceFor("en"), "unmapped language falls back to default voice")
}
