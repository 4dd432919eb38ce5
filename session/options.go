package session

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/ruffel/sshrpc"
)

// Option defines a functional option for a Session.
type Option func(*Config)

// WithConfig replaces every field with c. Later options still apply on top.
func WithConfig(c Config) Option {
	return func(cfg *Config) {
		*cfg = c
	}
}

// WithHost sets the target hostname.
func WithHost(host string) Option {
	return func(c *Config) {
		c.Host = host
	}
}

// WithLogin sets the remote user.
func WithLogin(login string) Option {
	return func(c *Config) {
		c.Login = login
	}
}

// WithPort sets the remote port.
func WithPort(port int) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithIdentity sets the path to the private key file.
func WithIdentity(path string) Option {
	return func(c *Config) {
		c.Identity = path
	}
}

// WithMaster requests a persistent multiplexed master connection.
func WithMaster(enabled bool) Option {
	return func(c *Config) {
		c.Master = enabled
	}
}

// WithBinary sets the ssh client binary.
func WithBinary(binary string) Option {
	return func(c *Config) {
		c.Binary = binary
	}
}

// WithControlDir sets where the master control socket lives.
func WithControlDir(dir string) Option {
	return func(c *Config) {
		c.ControlDir = dir
	}
}

// WithConnectTimeout sets the connection setup timeout passed to the client.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ConnectTimeout = d
	}
}

// WithSessreg sets the session-registration helper. An empty path disables it.
func WithSessreg(path string) Option {
	return func(c *Config) {
		c.Sessreg = path
		c.DisableSessreg = path == ""
	}
}

// WithPollInterval sets how often timed commands are polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithTerminateSignal sets the signal delivered when a command times out.
func WithTerminateSignal(sig os.Signal) Option {
	return func(c *Config) {
		c.TerminateSignal = sig
	}
}

// WithQuoting sets the escaping applied to env values, directories and arguments.
func WithQuoting(esc sshrpc.Escaper) Option {
	return func(c *Config) {
		c.Quoting = esc
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = &logger
	}
}

// WithRunner sets the process runner used to invoke the ssh client.
func WithRunner(r sshrpc.Runner) Option {
	return func(c *Config) {
		c.Runner = r
	}
}
