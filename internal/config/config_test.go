package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "goodreads", cfg.Sources.Primary.Name)
	assert.Equal(t, "q_gb_", cfg.Sources.Secondary.FlagPrefix)
	assert.True(t, cfg.Identity.TitleAuthorFallback)
	assert.Equal(t, "first", cfg.Identity.DuplicateKey)
	assert.Len(t, cfg.Quality.PrimaryGate, 2)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, "keep-first", cfg.Merge.Collapse)
	assert.Equal(t, 10*time.Second, cfg.Enrich.Timeout)
	require.Len(t, cfg.Quality.PrimaryGate, 2)
	assert.Equal(t, "pct_isbn13_not_null", cfg.Quality.PrimaryGate[1].OnlyIfPositive)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reconciler.yaml")
	content := `
sources:
  primary:
    path: data/goodreads.jsonl
merge:
  collapse: most-complete
identity:
  duplicate_key: last
quality:
  secondary_gate:
    - metric: pct_title_not_null
      min: 0.5
    - metric: pct_isbn13_valid
      min: 0.7
  languages:
    tlh: [klingon]
enrich:
  timeout: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("RECONCILER_OUTPUT__DIR", filepath.Join(dir, "out"))
	t.Setenv("RECONCILER_IDENTITY__TITLE_AUTHOR_FALLBACK", "false")
	t.Setenv("GOOGLE_BOOKS_API_KEY", "secret")
	t.Setenv("UNRELATED_SETTING", "ignored")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/goodreads.jsonl", cfg.Sources.Primary.Path)
	assert.Equal(t, "goodreads", cfg.Sources.Primary.Name, "defaults survive partial overrides")
	assert.Equal(t, "most-complete", cfg.Merge.Collapse)
	assert.Equal(t, "last", cfg.Identity.DuplicateKey)
	assert.False(t, cfg.Identity.TitleAuthorFallback)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Output.Dir)
	assert.Equal(t, "secret", cfg.Enrich.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Enrich.Timeout)
	require.Len(t, cfg.Quality.SecondaryGate, 2)
	assert.Equal(t, 0.7, cfg.Quality.SecondaryGate[1].Min)
	assert.Equal(t, []string{"klingon"}, cfg.Quality.Languages["tlh"])
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("merge:\n  collapse: random\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Collapse")
}

func TestValidateCrossField(t *testing.T) {
	cfg := Default()
	cfg.Sources.Secondary.Name = cfg.Sources.Primary.Name
	assert.ErrorContains(t, cfg.Validate(), "source names must differ")

	cfg = Default()
	cfg.Sources.Secondary.FlagPrefix = "q_gr_"
	assert.ErrorContains(t, cfg.Validate(), "flag prefixes must differ")

	cfg = Default()
	cfg.Quality.PrimaryGate[0].Min = 1.5
	assert.Error(t, cfg.Validate())
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"RECONCILER_OUTPUT__DIR":             "output.dir",
		"RECONCILER_ENRICH__RATE_PER_SECOND": "enrich.rate_per_second",
		"GOOGLE_BOOKS_API_KEY":               "enrich.api_key",
		"RECONCILER_CONFIG":                  "",
		"HOME":                               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envTransformFunc(in), in)
	}
}
