package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/ruffel/sshrpc"
	"github.com/ruffel/sshrpc/sshrpctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
defaults:
  timeout: 45s
  quoting: shell
  log_level: debug
hosts:
  db:
    host: db01.internal
    port: 2222
    login: deploy
    identity: /keys/deploy
    master: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sshrpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}

	return func(name string) bool { return set[name] }
}

func TestLoadConfig(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		cfg, err := loadConfig(writeConfig(t, sampleConfig))
		require.NoError(t, err)

		assert.Equal(t, 45*time.Second, cfg.Defaults.Timeout)
		assert.Equal(t, "shell", cfg.Defaults.Quoting)
		assert.Equal(t, "debug", cfg.Defaults.LogLevel)
		assert.Equal(t, "auto", cfg.Defaults.LogFormat)
		assert.Equal(t, 30*time.Second, cfg.Defaults.ConnectTimeout)

		require.Contains(t, cfg.Hosts, "db")
		assert.Equal(t, hostEntry{
			Host: "db01.internal", Port: 2222, Login: "deploy", Identity: "/keys/deploy", Master: true,
		}, cfg.Hosts["db"])
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("SSHRPC_DEFAULTS_LOG_LEVEL", "error")

		cfg, err := loadConfig(writeConfig(t, sampleConfig))
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.Defaults.LogLevel)
	})

	t.Run("explicit missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

func TestResolveSession(t *testing.T) {
	t.Parallel()

	sshConfig := filepath.Join(t.TempDir(), "ssh_config")
	require.NoError(t, os.WriteFile(sshConfig, []byte(`
Host via-config
    HostName 10.0.0.7
    User ops
    Port 2200
`), 0o600))

	cfg := &fileConfig{
		Defaults: defaultsEntry{ConnectTimeout: 10 * time.Second},
		Hosts: map[string]hostEntry{
			"db":         {Host: "db01.internal", Port: 2222, Login: "deploy", Master: true},
			"via-config": {SSHConfig: sshConfig, Login: "override"},
		},
	}

	t.Run("named host", func(t *testing.T) {
		t.Parallel()

		got, err := resolveSession(cfg, &globalFlags{host: "db"}, changedSet())
		require.NoError(t, err)

		assert.Equal(t, "db01.internal", got.Host)
		assert.Equal(t, 2222, got.Port)
		assert.Equal(t, "deploy", got.Login)
		assert.True(t, got.Master)
		assert.Equal(t, 10*time.Second, got.ConnectTimeout)
	})

	t.Run("flags win", func(t *testing.T) {
		t.Parallel()

		flags := &globalFlags{host: "db", port: 22, login: "root", master: false}

		got, err := resolveSession(cfg, flags, changedSet("port", "login", "master"))
		require.NoError(t, err)

		assert.Equal(t, 22, got.Port)
		assert.Equal(t, "root", got.Login)
		assert.False(t, got.Master)
	})

	t.Run("unknown name is a hostname", func(t *testing.T) {
		t.Parallel()

		got, err := resolveSession(cfg, &globalFlags{host: "web07"}, changedSet())
		require.NoError(t, err)
		assert.Equal(t, "web07", got.Host)
		assert.Zero(t, got.Port)
	})

	t.Run("ssh_config then entry", func(t *testing.T) {
		t.Parallel()

		got, err := resolveSession(cfg, &globalFlags{host: "via-config"}, changedSet())
		require.NoError(t, err)

		assert.Equal(t, "10.0.0.7", got.Host)
		assert.Equal(t, 2200, got.Port)
		assert.Equal(t, "override", got.Login)
	})

	t.Run("no host", func(t *testing.T) {
		t.Parallel()

		_, err := resolveSession(cfg, &globalFlags{}, changedSet())
		require.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log, err := newLogger("warn", "json", &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("host", "db01").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"host":"db01"`)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	_, err = newLogger("loud", "json", &buf)
	require.Error(t, err)

	_, err = newLogger("info", "xml", &buf)
	require.Error(t, err)
}

func TestParseEnv(t *testing.T) {
	t.Parallel()

	env, err := parseEnv([]string{"A=1", "MSG=hello world", "EMPTY="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "MSG": "hello world", "EMPTY": ""}, env)

	_, err = parseEnv([]string{"novalue"})
	require.Error(t, err)
}

// stubTarget answers every command with a fixed exit code.
type stubTarget struct{ code int }

func (s stubTarget) Execute(_ context.Context, cmd *sshrpc.Command) (*sshrpc.Result, error) {
	res := &sshrpc.Result{ExitCode: s.code}
	if s.code != cmd.ExpectedReturn {
		return res, &sshrpc.MismatchError{Command: cmd.Cmd, Expected: cmd.ExpectedReturn, Observed: s.code}
	}

	return res, nil
}

func TestRunContract(t *testing.T) {
	t.Parallel()

	tc := sshrpctest.TestCase{
		Category: sshrpctest.CategoryCore,
		Name:     "exit-zero",
		Run: func(t sshrpctest.T, target sshrpc.Target) {
			_, err := target.Execute(t.Context(), sshrpc.NewCommand("true"))
			require.NoError(t, err)
		},
	}

	assert.True(t, runContract(context.Background(), tc, stubTarget{}).passed)

	failed := runContract(context.Background(), tc, stubTarget{code: 1})
	assert.False(t, failed.passed)
	assert.NotEmpty(t, failed.errMsg)

	tc.Prereq = func(sshrpctest.T, sshrpc.Target) (bool, string) { return false, "not here" }

	skipped := runContract(context.Background(), tc, stubTarget{})
	assert.True(t, skipped.skipped)
	assert.Contains(t, skipped.skipMsg, "not here")

	var out bytes.Buffer

	names := []string{"local"}
	matrix := map[string]map[string]testResult{tc.ID(): {"local": failed}}
	assert.True(t, renderMatrix(&out, names, []sshrpctest.TestCase{tc}, matrix))
	assert.Contains(t, out.String(), "core/exit-zero")
}
