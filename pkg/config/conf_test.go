package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/geocidr/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)

	c1, err := ReadOrCreate(path)
	require.NoError(t, err)
	require.NotNil(t, c1)
	assert.Empty(t, c1.Scores)
	assert.Empty(t, c1.Additional)
	assert.Equal(t, []table.Block{{Address: "127.0.0.0", Suffix: "24", Score: 0}}, c1.Extra())

	c1.Scores["AU"] = 5
	c1.Scores["EU"] = 2
	c1.Progress = true
	c1.SQLitePath = "blocks.db"

	require.NoError(t, Save(path, c1))

	c2, err := ReadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, c1.Scores, c2.Scores)
	assert.Equal(t, c1.Additional, c2.Additional)
	assert.True(t, c2.Progress)
	assert.Equal(t, "blocks.db", c2.SQLitePath)
	assert.Equal(t, table.Mapping{"AU": 5, "EU": 2}, c2.Mapping())
}

func TestLoad(t *testing.T) {
	content := `scores:
  AU: 5
  EU: 2
additional:
  - address: 127.0.0.0
    suffix: "24"
    score: 0
  - address: "::1"
    suffix: "128"
    score: 0
log_level: debug
`
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Scores["AU"])
	assert.Len(t, c.Additional, 2)
	assert.Equal(t, "::1", c.Additional[1].Address)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoad_ScoresOnlyKeepsLoopback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scores:\n  AU: 5\n"), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, c.Additional)
	assert.Equal(t, []table.Block{{Address: "127.0.0.0", Suffix: "24", Score: 0}}, c.Extra())
}

func TestConfig_ExtraAppendsAdditional(t *testing.T) {
	c := Default()
	c.Additional = []table.Block{{Address: "::1", Suffix: "128", Score: 0}}

	assert.Equal(t, []table.Block{
		{Address: "127.0.0.0", Suffix: "24", Score: 0},
		{Address: "::1", Suffix: "128", Score: 0},
	}, c.Extra())
	assert.Len(t, c.Additional, 1)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"lower case code", "scores:\n  au: 5\n"},
		{"three letter code", "scores:\n  AUS: 5\n"},
		{"non numeric score", "scores:\n  AU: high\n"},
		{"additional without suffix", "additional:\n  - address: 127.0.0.0\n"},
		{"not yaml", "scores: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, c.Scores)
	assert.Empty(t, c.Additional)
}

func TestSave_Errors(t *testing.T) {
	assert.Error(t, Save("", Default()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), configFileName), nil))
	_, err := ReadOrCreate("")
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetPath_Env(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/geocidr-test.yaml")
	p, err := GetPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/geocidr-test.yaml", p)
}

func TestGetPath_Home(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfigPath, "")

	p, err := GetPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, appDirName, configFileName), p)
	assert.DirExists(t, filepath.Join(home, appDirName))
}

func TestGetOrCreateHomeDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, created, err := GetOrCreateHomeDir("geocidr-test")
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = GetOrCreateHomeDir(".geocidr-test")
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = GetOrCreateHomeDir("")
	assert.Error(t, err)
}

func TestIsKnownCountry(t *testing.T) {
	assert.True(t, IsKnownCountry("AU"))
	assert.True(t, IsKnownCountry("EU"))
	assert.False(t, IsKnownCountry("XX"))
	assert.False(t, IsKnownCountry("au"))
}
