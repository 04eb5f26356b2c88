package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/geocidr/pkg/config"
	"github.com/mchmarny/geocidr/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIPv4Table = `# IpToCountry
"16777216","16777471","apnic","1313020800","AU","AUS","Australia"
"16777472","16778239","apnic","1313020800","CN","CHN","China"
`

	testIPv6Table = `# IpToCountry.6C
2001:4:112::/48,EU,ripencc,20080328
2001:200::/23,JP,apnic,19990813
`

	testConfig = `scores:
  AU: 5
  EU: 2
log_level: error
`
)

func TestMain(m *testing.M) {
	logging.SetDefaultCLILogger("error")
	os.Exit(m.Run())
}

type testEnv struct {
	dir  string
	ipv4 string
	ipv6 string
	out  string
}

func setupTestEnv(t *testing.T, cfg string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:  dir,
		ipv4: filepath.Join(dir, "IpToCountry.csv"),
		ipv6: filepath.Join(dir, "IpToCountry.6C.csv"),
		out:  filepath.Join(dir, "blocks.csv"),
	}
	require.NoError(t, os.WriteFile(env.ipv4, []byte(testIPv4Table), 0600))
	require.NoError(t, os.WriteFile(env.ipv6, []byte(testIPv6Table), 0600))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))
	t.Setenv(config.EnvConfigPath, cfgPath)
	return env
}

func TestApp_Convert(t *testing.T) {
	env := setupTestEnv(t, testConfig)

	var stdout bytes.Buffer
	app := newApp()
	app.Writer = &stdout

	err := app.Run(context.Background(), []string{"geocidr", "--infile_v4", env.ipv4, "--infile-v6", env.ipv6, env.out})
	require.NoError(t, err)

	b, err := os.ReadFile(env.out)
	require.NoError(t, err)
	assert.Equal(t, "ip_from,cidr_suffix,score\n1.0.0.0,8,5\n2001:4:112::,48,2\n127.0.0.0,24,0\n", string(b))

	var res ConvertResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	assert.Equal(t, env.out, res.Output)
	assert.Equal(t, 3, res.Blocks)
	assert.Equal(t, 1, res.IPv4.Kept)
	assert.Equal(t, 1, res.IPv4.Unmapped)
	assert.Equal(t, 1, res.IPv6.Kept)
}

func TestApp_ScoresOnlyConfigWritesLoopback(t *testing.T) {
	env := setupTestEnv(t, "scores:\n  AU: 5\n")

	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run(context.Background(), []string{"geocidr", "--infile-v4", env.ipv4, "--infile-v6", env.ipv6, env.out})
	require.NoError(t, err)

	b, err := os.ReadFile(env.out)
	require.NoError(t, err)
	assert.Equal(t, "ip_from,cidr_suffix,score\n1.0.0.0,8,5\n127.0.0.0,24,0\n", string(b))
}

func TestApp_IncompatibleRangeAborts(t *testing.T) {
	env := setupTestEnv(t, "scores:\n  CN: 1\nlog_level: error\n")

	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run(context.Background(), []string{"geocidr", "--infile-v4", env.ipv4, "--infile-v6", env.ipv6, env.out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1.0.1.0-1.0.3.255")
	assert.NoFileExists(t, env.out)
}

func TestApp_MissingOutput(t *testing.T) {
	env := setupTestEnv(t, testConfig)

	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run(context.Background(), []string{"geocidr", "--infile-v4", env.ipv4, "--infile-v6", env.ipv6})
	assert.ErrorIs(t, err, errOutputRequired)
}

func TestApp_InvalidConfig(t *testing.T) {
	env := setupTestEnv(t, "scores:\n  australia: 5\n")

	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run(context.Background(), []string{"geocidr", "--infile-v4", env.ipv4, "--infile-v6", env.ipv6, env.out})
	assert.Error(t, err)
	assert.NoFileExists(t, env.out)
}

func TestApp_Defaults(t *testing.T) {
	app := newApp()
	assert.Equal(t, "geocidr", app.Name)
	require.Len(t, app.Flags, 2)
	assert.Equal(t, []string{ipv4SourceFlagName, "infile_v4"}, app.Flags[0].Names())
	assert.Equal(t, []string{ipv6SourceFlagName, "infile_v6"}, app.Flags[1].Names())
}
