package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ruffel/sshrpc/session"
	"github.com/spf13/viper"
)

// hostEntry is one named target under "hosts" in sshrpc.yaml.
type hostEntry struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Login     string `mapstructure:"login"`
	Identity  string `mapstructure:"identity"`
	Master    bool   `mapstructure:"master"`
	SSHConfig string `mapstructure:"ssh_config"`
}

type defaultsEntry struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Quoting        string        `mapstructure:"quoting"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
}

type fileConfig struct {
	Defaults defaultsEntry        `mapstructure:"defaults"`
	Hosts    map[string]hostEntry `mapstructure:"hosts"`
}

// loadConfig reads sshrpc.yaml with precedence defaults < file < SSHRPC_* env.
// A missing file is only an error when path names it explicitly.
func loadConfig(path string) (*fileConfig, error) {
	v := viper.New()

	v.SetConfigName("sshrpc")
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "sshrpc"))
		}

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "sshrpc"))
		}

		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SSHRPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("defaults.timeout", time.Duration(0))
	v.SetDefault("defaults.connect_timeout", session.DefaultConnectTimeout)
	v.SetDefault("defaults.poll_interval", time.Duration(0))
	v.SetDefault("defaults.quoting", "spaces")
	v.SetDefault("defaults.log_level", "warn")
	v.SetDefault("defaults.log_format", "auto")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg := &fileConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// resolveSession builds the session configuration for name. Sources apply
// lowest first: ssh_config, the hosts entry, then flags the user set.
// A name without a hosts entry is used as the hostname itself.
func resolveSession(cfg *fileConfig, f *globalFlags, changed func(string) bool) (session.Config, error) {
	if f.host == "" {
		return session.Config{}, errors.New("no host given (use --host or SSHRPC_HOST)")
	}

	entry, named := cfg.Hosts[f.host]
	if !named {
		entry = hostEntry{Host: f.host}
	}

	sshConfig := entry.SSHConfig
	if changed("ssh-config") {
		sshConfig = f.sshConfig
	}

	out := session.Config{Host: entry.Host}

	if sshConfig != "" {
		alias := entry.Host
		if alias == "" {
			alias = f.host
		}

		resolved, err := session.ConfigFromSSHConfig(alias, expandTilde(sshConfig))
		if err != nil {
			return session.Config{}, err
		}

		out = resolved
	}

	if entry.Port != 0 {
		out.Port = entry.Port
	}

	if entry.Login != "" {
		out.Login = entry.Login
	}

	if entry.Identity != "" {
		out.Identity = expandTilde(entry.Identity)
	}

	out.Master = entry.Master

	if changed("port") {
		out.Port = f.port
	}

	if changed("login") {
		out.Login = f.login
	}

	if changed("identity") {
		out.Identity = expandTilde(f.identity)
	}

	if changed("master") {
		out.Master = f.master
	}

	out.ConnectTimeout = cfg.Defaults.ConnectTimeout
	out.PollInterval = cfg.Defaults.PollInterval

	return out, nil
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}

	return path
}
