package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factcheck/internal/model"
)

func TestReportSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "sample/Unemployment Claims.txt", want: "unemployment-claims"},
		{input: "https://example.com/news/2024/jobs-report/", want: "jobs-report"},
		{input: "https://example.com/article.html", want: "article"},
		{input: "___.txt", want: "input"},
		{input: strings.Repeat("a", 80) + ".txt", want: strings.Repeat("a", 60)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, reportSlug(tt.input))
		})
	}
}

func TestReadGraph(t *testing.T) {
	dir := t.TempDir()

	kg, err := readGraph("")
	require.NoError(t, err)
	assert.Nil(t, kg)

	path := filepath.Join(dir, "kg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"unemployment rate": {"2019 level": {"value": "3.5%", "source": "lowest in 50 years"}}}`), 0o644))

	kg, err = readGraph(path)
	require.NoError(t, err)
	assert.Equal(t, "3.5%", kg["unemployment rate"]["2019 level"].Value)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`null`), 0o644))
	kg, err = readGraph(empty)
	require.NoError(t, err)
	assert.NotNil(t, kg, "supplied empty graph must not fall back to building one")
	assert.Empty(t, kg)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1, 2`), 0o644))
	_, err = readGraph(bad)
	assert.Error(t, err)
}

func TestReadFileIf(t *testing.T) {
	got, err := readFileIf("")
	require.NoError(t, err)
	assert.Nil(t, got)

	path := filepath.Join(t.TempDir(), "context.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	got, err = readFileIf(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "", *got)

	_, err = readFileIf(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestSetDefaults_EnvOverrides(t *testing.T) {
	t.Setenv("FACTCHECK_LLM_MODEL", "solar-mini")
	t.Setenv("FACTCHECK_LLM_API_KEY", "up-test")
	t.Setenv("FACTCHECK_SEARCH_TIMEOUT", "5s")

	v := viper.New()
	require.NoError(t, setDefaults(v))
	v.SetEnvPrefix("FACTCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := model.DefaultConfig()
	require.NoError(t, v.Unmarshal(cfg))

	assert.Equal(t, "solar-mini", cfg.LLM.Model)
	assert.Equal(t, "up-test", cfg.LLM.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "upstage", cfg.LLM.Provider)
	assert.Equal(t, 24*time.Hour, cfg.Cache.DiskTTL)
	assert.Equal(t, 0.7, cfg.Verify.ConfidenceThreshold)
}

func TestConfigYAML_MasksAPIKey(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "up-secret"

	data, err := configYAML(cfg)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "up-secret")
	assert.Contains(t, string(data), "********")
	assert.Equal(t, "up-secret", cfg.LLM.APIKey, "caller's config must not be modified")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".factcheck", "config.yaml")

	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "# factcheck configuration file"))
	assert.Contains(t, content, "provider: upstage")
	assert.Contains(t, content, "UPSTAGE_API_KEY")

	err = writeDefaultConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "factcheck "+Version+"\n", out.String())
}
