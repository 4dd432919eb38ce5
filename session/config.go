package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/rs/zerolog"
	"github.com/ruffel/sshrpc"
	"github.com/ruffel/sshrpc/runner"
)

const (
	// DefaultBinary is the ssh client looked up on PATH.
	DefaultBinary = "ssh"

	// DefaultConnectTimeout is used for ConnectTimeout (or SetupTimeOut on Debian builds).
	DefaultConnectTimeout = 30 * time.Second

	// DefaultSessreg is the session-registration helper run before negotiation.
	DefaultSessreg = "/usr/X11/bin/sessreg"
)

// Config holds all parameters required to drive the ssh client against one host.
type Config struct {
	// Connection details
	Host     string // Hostname or IP address
	Port     int    // Port number (0 leaves it to the client)
	Login    string // Username to authenticate as
	Identity string // Path to the private key file
	Master   bool   // Request a persistent multiplexed master connection

	// Client settings
	Binary         string        // ssh client binary (default "ssh")
	ControlDir     string        // Directory for the master control socket (default ~/.ssh)
	ConnectTimeout time.Duration // Connection setup timeout (default 30s)
	Sessreg        string        // Session-registration helper (default DefaultSessreg)
	DisableSessreg bool          // Skip the session-registration workaround

	// Execution settings
	PollInterval    time.Duration  // Poll interval for timed commands (default 200ms)
	TerminateSignal os.Signal      // Signal sent when a timeout fires (runner default when nil)
	Quoting         sshrpc.Escaper // Escaping for env values, dirs and argv (default sshrpc.EscapeSpaces)

	// Collaborators
	Logger *zerolog.Logger // Structured logger (default: disabled)
	Runner sshrpc.Runner   // Process runner (default: runner.New())
}

// NewConfig creates a Config with safe defaults.
func NewConfig(host, login string) Config {
	return Config{
		Host:  host,
		Login: login,
	}.WithDefaults()
}

// ConfigFromSSHConfig loads connection details for alias from an OpenSSH config file.
// An empty path reads ~/.ssh/config.
func ConfigFromSSHConfig(alias, path string) (Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to locate home directory: %w", err)
		}

		path = filepath.Join(home, ".ssh", "config")
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open ssh config: %w", err)
	}

	defer func() { _ = f.Close() }()

	return ConfigFromSSHConfigReader(alias, f)
}

// ConfigFromSSHConfigReader parses OpenSSH configuration data.
// It resolves the alias to the actual HostName, User, Port, and IdentityFile.
func ConfigFromSSHConfigReader(alias string, r io.Reader) (Config, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse ssh config: %w", err)
	}

	hostName, err := cfg.Get(alias, "HostName")
	if err != nil || hostName == "" {
		hostName = alias // Fallback if no HostName defined
	}

	login, _ := cfg.Get(alias, "User")

	c := Config{
		Host:  hostName,
		Login: login,
	}

	if portStr, _ := cfg.Get(alias, "Port"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid port %q for %s: %w", portStr, alias, err)
		}

		c.Port = port
	}

	if identity, _ := cfg.Get(alias, "IdentityFile"); identity != "" {
		c.Identity = expandHome(identity)
	}

	if cp, _ := cfg.Get(alias, "ControlPath"); cp != "" && cp != "none" {
		c.ControlDir = filepath.Dir(expandHome(cp))
	}

	return c, nil
}

// WithDefaults sets default values for zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.Login == "" {
		c.Login = defaultLogin()
	}

	if c.Identity == "" {
		c.Identity = defaultIdentity()
	}

	if c.Binary == "" {
		c.Binary = DefaultBinary
	}

	if c.ControlDir == "" {
		c.ControlDir = filepath.Join(userHome(), ".ssh")
	}

	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}

	if c.Sessreg == "" {
		c.Sessreg = DefaultSessreg
	}

	if c.PollInterval <= 0 {
		c.PollInterval = sshrpc.DefaultPollInterval
	}

	if c.Quoting == nil {
		c.Quoting = sshrpc.EscapeSpaces
	}

	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}

	if c.Runner == nil {
		c.Runner = runner.New()
	}

	return c
}

// Validate ensures all required fields are present.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("configuration error: host cannot be empty")
	}

	if strings.HasPrefix(c.Host, "-") {
		return fmt.Errorf("configuration error: host %q looks like a flag", c.Host)
	}

	if c.Login == "" {
		return errors.New("configuration error: login cannot be empty")
	}

	if c.Identity == "" {
		return errors.New("configuration error: identity cannot be empty")
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("configuration error: port %d out of range", c.Port)
	}

	if c.Binary == "" {
		return errors.New("configuration error: ssh binary cannot be empty")
	}

	return nil
}

// defaultLogin finds the local username: LOGNAME, USER, then the password database.
func defaultLogin() string {
	for _, key := range []string{"LOGNAME", "USER"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}

	if u, err := user.Current(); err == nil {
		return u.Username
	}

	return ""
}

// defaultIdentity returns the first existing conventional key, or ~/.ssh/id_dsa.
func defaultIdentity() string {
	dir := filepath.Join(userHome(), ".ssh")

	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa", "id_dsa"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return filepath.Join(dir, "id_dsa")
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return home
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(userHome(), path[2:])
	}

	return path
}
