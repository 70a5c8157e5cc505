package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicd-ai-toolkit/context-chunker/pkg/buildctx"
	"github.com/cicd-ai-toolkit/context-chunker/pkg/errors"
)

func envMap(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestLoader(root string, env map[string]string) *Loader {
	return NewLoader().WithProjectRoot(root).SkipGlobal().WithEnv(envMap(env))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 32000, cfg.Chunker.MaxTokens)
	assert.Equal(t, 28000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.TruncationThreshold)
	assert.Equal(t, 50, cfg.Chunker.Reserve())
	assert.Equal(t, "cl100k_base", cfg.Chunker.Encoding)
	assert.Equal(t, buildctx.DefaultPriorityOrder, cfg.Chunker.PriorityOrder)
	assert.Equal(t, "info", cfg.Global.LogLevel)
	assert.Equal(t, "text", cfg.Global.LogFormat)
}

func TestDefaultChunkSize(t *testing.T) {
	tests := []struct {
		max  int
		want int
	}{
		{32000, 28000},
		{8000, 4000},
		{4500, 1000},
		{100, 1000},
	}
	for _, tt := range tests {
		if got := DefaultChunkSize(tt.max); got != tt.want {
			t.Errorf("DefaultChunkSize(%d) = %d, want %d", tt.max, got, tt.want)
		}
	}
}

func TestLoadNoFiles(t *testing.T) {
	cfg, warns := newTestLoader(t.TempDir(), nil).Load()
	assert.Empty(t, warns)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".context-chunker.yaml", `
chunker:
  max_tokens: 8000
  truncation_threshold: 50
  marker_reserve: 0
  priority_order: [diff, reviews]
  exclude_files: ["**/*.lock", "vendor/**"]
global:
  log_level: debug
`)

	cfg, warns := newTestLoader(dir, nil).Load()
	require.Empty(t, warns)

	assert.Equal(t, 8000, cfg.Chunker.MaxTokens)
	assert.Equal(t, 4000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 50, cfg.Chunker.TruncationThreshold)
	assert.Equal(t, 0, cfg.Chunker.Reserve())
	assert.Equal(t, []string{"diff", "reviews"}, cfg.Chunker.PriorityOrder)
	assert.Equal(t, []string{"**/*.lock", "vendor/**"}, cfg.Chunker.ExcludeFiles)
	assert.Equal(t, "debug", cfg.Global.LogLevel)
	assert.Equal(t, "text", cfg.Global.LogFormat)

	budget := cfg.Chunker.Budget()
	assert.Equal(t, 8000, budget.MaxTokens)
	assert.Equal(t, 0, budget.MarkerReserve)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".context-chunker.toml", `
[chunker]
max_tokens = 12000
encoding = "o200k_base"

[global]
log_format = "json"
`)

	cfg, warns := newTestLoader(dir, nil).Load()
	require.Empty(t, warns)
	assert.Equal(t, 12000, cfg.Chunker.MaxTokens)
	assert.Equal(t, "o200k_base", cfg.Chunker.Encoding)
	assert.Equal(t, "json", cfg.Global.LogFormat)
}

func TestLoadJSONC(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".context-chunker.jsonc", `{
  // tighter budget for small models
  "chunker": {
    "max_tokens": 4096,
    "review_body_limit": 120, /* shorter excerpts */
  },
}`)

	cfg, warns := newTestLoader(dir, nil).Load()
	require.Empty(t, warns)
	assert.Equal(t, 4096, cfg.Chunker.MaxTokens)
	assert.Equal(t, 120, cfg.Chunker.ReviewBodyLimit)
	assert.Equal(t, 120, cfg.Chunker.CatalogOptions().ReviewBodyLimit)
}

func TestLoadFirstProjectFileWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".context-chunker.yaml", "chunker:\n  max_tokens: 9000\n")
	writeFile(t, dir, ".context-chunker.toml", "[chunker]\nmax_tokens = 7000\n")

	cfg, warns := newTestLoader(dir, nil).Load()
	require.Empty(t, warns)
	assert.Equal(t, 9000, cfg.Chunker.MaxTokens)
}

func TestLoadGlobalThenProject(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, GlobalConfigDir), 0o755))
	writeFile(t, filepath.Join(home, GlobalConfigDir), GlobalConfigFile, "chunker:\n  max_tokens: 9000\n  encoding: p50k_base\n")

	project := t.TempDir()
	writeFile(t, project, ".context-chunker.yml", "chunker:\n  max_tokens: 6000\n")

	l := NewLoader().WithProjectRoot(project).WithEnv(envMap(nil))
	l.homeDir = func() (string, error) { return home, nil }

	cfg, warns := l.Load()
	require.Empty(t, warns)
	assert.Equal(t, 6000, cfg.Chunker.MaxTokens)
	assert.Equal(t, "p50k_base", cfg.Chunker.Encoding)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".context-chunker.yaml", "chunker:\n  max_tokens: 9000\n")

	cfg, warns := newTestLoader(dir, map[string]string{
		"CICD_TOOLKIT_CHUNKER__MAX_TOKENS":           "5000",
		"CICD_TOOLKIT_CHUNKER__TRUNCATION_THRESHOLD": " 20 ",
		"CICD_TOOLKIT_CHUNKER__MARKER_RESERVE":       "10",
		"CICD_TOOLKIT_CHUNKER__ENCODING":             "none",
		"CICD_TOOLKIT_CHUNKER__PRIORITY_ORDER":       "diff, ,logs",
		"CICD_TOOLKIT_GLOBAL__LOG_LEVEL":             "warn",
	}).Load()
	require.Empty(t, warns)

	assert.Equal(t, 5000, cfg.Chunker.MaxTokens)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 20, cfg.Chunker.TruncationThreshold)
	assert.Equal(t, 10, cfg.Chunker.Reserve())
	assert.Equal(t, "none", cfg.Chunker.Encoding)
	assert.Equal(t, []string{"diff", "logs"}, cfg.Chunker.PriorityOrder)
	assert.Equal(t, "warn", cfg.Global.LogLevel)
}

func TestLoadEnvKeepsExplicitChunkSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".context-chunker.yaml", "chunker:\n  chunk_size: 2500\n")

	cfg, warns := newTestLoader(dir, map[string]string{
		"CICD_TOOLKIT_CHUNKER__MAX_TOKENS": "16000",
	}).Load()
	require.Empty(t, warns)
	assert.Equal(t, 16000, cfg.Chunker.MaxTokens)
	assert.Equal(t, 2500, cfg.Chunker.ChunkSize)
}

func TestLoadWarnings(t *testing.T) {
	t.Run("invalid env integer", func(t *testing.T) {
		cfg, warns := newTestLoader(t.TempDir(), map[string]string{
			"CICD_TOOLKIT_CHUNKER__MAX_TOKENS": "lots",
		}).Load()
		require.Len(t, warns, 1)
		assert.True(t, errors.IsType(warns[0], errors.ErrConfig))
		assert.Equal(t, 32000, cfg.Chunker.MaxTokens)
	})

	t.Run("broken file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, ".context-chunker.yaml", "chunker: [unclosed\n")
		cfg, warns := newTestLoader(dir, nil).Load()
		require.Len(t, warns, 1)
		assert.True(t, errors.IsType(warns[0], errors.ErrConfig))
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("missing explicit path", func(t *testing.T) {
		cfg, warns := newTestLoader(t.TempDir(), nil).WithPath(filepath.Join(t.TempDir(), "absent.yaml")).Load()
		require.Len(t, warns, 1)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("invalid values repaired", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, ".context-chunker.yaml", `
chunker:
  max_tokens: -5
  truncation_threshold: 999999
global:
  log_level: loud
`)
		cfg, warns := newTestLoader(dir, nil).Load()
		assert.Len(t, warns, 3)
		assert.Equal(t, 32000, cfg.Chunker.MaxTokens)
		assert.Equal(t, 100, cfg.Chunker.TruncationThreshold)
		assert.Equal(t, "info", cfg.Global.LogLevel)
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadExplicitPathFromEnv(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.toml", "[chunker]\nmax_tokens = 3000\n")
	project := t.TempDir()
	writeFile(t, project, ".context-chunker.yaml", "chunker:\n  max_tokens: 9000\n")

	cfg, warns := newTestLoader(project, map[string]string{EnvConfigPath: path}).Load()
	require.Empty(t, warns)
	assert.Equal(t, 3000, cfg.Chunker.MaxTokens)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero max tokens", func(c *Config) { c.Chunker.MaxTokens = 0 }, true},
		{"threshold above max", func(c *Config) { c.Chunker.TruncationThreshold = 40000 }, true},
		{"threshold fills room", func(c *Config) { c.Chunker.TruncationThreshold = 31950 }, true},
		{"threshold just below room", func(c *Config) { c.Chunker.TruncationThreshold = 31949 }, false},
		{"zero threshold", func(c *Config) { c.Chunker.TruncationThreshold = 0 }, false},
		{"reserve equals max", func(c *Config) { c.Chunker.MarkerReserve = IntPtr(32000) }, true},
		{"negative reserve", func(c *Config) { c.Chunker.MarkerReserve = IntPtr(-1) }, true},
		{"bad glob", func(c *Config) { c.Chunker.ExcludeFiles = []string{"[a-"} }, true},
		{"unknown section", func(c *Config) { c.Chunker.PriorityOrder = []string{"diff", "emails"} }, true},
		{"alias section", func(c *Config) { c.Chunker.PriorityOrder = []string{"checks", "files"} }, false},
		{"bad log format", func(c *Config) { c.Global.LogFormat = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrValidation))
}

func TestRepairDropsBadGlobs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunker.ExcludeFiles = []string{"*.lock", "[a-"}
	warns := cfg.Repair()
	require.Len(t, warns, 1)
	assert.Equal(t, []string{"*.lock"}, cfg.Chunker.ExcludeFiles)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a,,b ,"))
	assert.Nil(t, SplitList(" , "))
}

func TestSchemaJSON(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)

	var schema struct {
		ID         string                            `json:"$id"`
		Properties map[string]map[string]interface{} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, SchemaID, schema.ID)
	assert.Contains(t, schema.Properties, "chunker")
	assert.Contains(t, schema.Properties, "global")

	chunker := schema.Properties["chunker"]["properties"].(map[string]interface{})
	assert.Contains(t, chunker, "max_tokens")
	assert.Contains(t, chunker, "marker_reserve")
}

func TestRepairDropsUnknownSections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunker.PriorityOrder = []string{"diff", "emails", "reviews"}
	warns := cfg.Repair()
	require.Len(t, warns, 1)
	assert.Equal(t, []string{"diff", "reviews"}, cfg.Chunker.PriorityOrder)
	assert.Empty(t, cfg.Repair())
}

func TestRepairSmallBudgetKeepsTruncation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunker.MaxTokens = 50
	cfg.Chunker.Encoding = "none"

	warns := cfg.Repair()
	assert.Len(t, warns, 2)
	require.NoError(t, cfg.Validate())

	budget := cfg.Chunker.Budget()
	assert.Equal(t, 25, budget.MarkerReserve)
	assert.Equal(t, 12, budget.TruncationThreshold)
	assert.Less(t, budget.TruncationThreshold, budget.MaxTokens-budget.MarkerReserve)

	var reviews []string
	for i := 0; i < 8; i++ {
		reviews = append(reviews, fmt.Sprintf(`{"user": "dev%d", "body": "%s"}`, i, strings.Repeat("y", 30)))
	}
	p, err := buildctx.ParsePayload([]byte(`{"reviews": [` + strings.Join(reviews, ",") +
		`], "files": [{"filename": "main.go", "additions": 3, "deletions": 1}]}`))
	require.NoError(t, err)

	res, err := buildctx.NewChunker(budget, buildctx.NewTokenCounter(cfg.Chunker.Encoding, nil), nil, nil, nil).Process(p)
	require.NoError(t, err)
	assert.True(t, res.Chunked)
	assert.LessOrEqual(t, res.TokenCount, 50)
	assert.True(t, strings.HasPrefix(res.Content, "## Review Comments (truncated)\n"), res.Content)
	assert.NotContains(t, res.Content, "Changed Files")
}
