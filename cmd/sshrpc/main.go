// Package main is the sshrpc command: run commands and move files on a remote
// host through the system ssh client.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/ruffel/sshrpc"
	"github.com/ruffel/sshrpc/session"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configFile string
	host       string
	login      string
	port       int
	identity   string
	master     bool
	sshConfig  string
	sshArgs    string
	quoting    string
	timeout    time.Duration
	logLevel   string
	logFormat  string
}

// app carries what every subcommand needs once flags and config are resolved.
type app struct {
	flags  globalFlags
	config *fileConfig
	log    zerolog.Logger
	root   *cobra.Command
}

// exitCodeError makes the process exit with a remote command's status.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }

func (e *exitCodeError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}

		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "sshrpc",
		Short:        "Run commands on a remote host through the system ssh client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default: sshrpc.yaml in $XDG_CONFIG_HOME/sshrpc, ~/.config/sshrpc or .)")
	pf.StringVarP(&a.flags.host, "host", "H", os.Getenv("SSHRPC_HOST"), "target host, or a name under hosts in the config file")
	pf.StringVarP(&a.flags.login, "login", "l", "", "remote user")
	pf.IntVarP(&a.flags.port, "port", "p", 0, "remote port")
	pf.StringVarP(&a.flags.identity, "identity", "i", "", "private key file")
	pf.BoolVar(&a.flags.master, "master", false, "multiplex commands over a master connection")
	pf.StringVar(&a.flags.sshConfig, "ssh-config", "", "resolve the host through this ssh_config file")
	pf.StringVar(&a.flags.sshArgs, "ssh-args", "", "extra ssh arguments for each command, shell-split")
	pf.StringVar(&a.flags.quoting, "quoting", "", "remote quoting policy: spaces or shell")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "per-command timeout (0 waits forever)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "log format: auto, console or json")

	a.root = root

	root.AddCommand(
		a.execCommand(),
		a.homeCommand(),
		a.factsCommand(),
		a.syncCommand(),
		a.putCommand(),
		a.fetchCommand(),
		a.retrieveCommand(),
		a.checkCommand(),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.flags.configFile)
	if err != nil {
		return err
	}

	a.config = cfg

	level := cfg.Defaults.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = a.flags.logLevel
	}

	format := cfg.Defaults.LogFormat
	if cmd.Flags().Changed("log-format") {
		format = a.flags.logFormat
	}

	a.log, err = newLogger(level, format, os.Stderr)

	return err
}

// open resolves the target and opens a session against it.
func (a *app) open(cmd *cobra.Command) (*session.Session, error) {
	cfg, err := resolveSession(a.config, &a.flags, cmd.Flags().Changed)
	if err != nil {
		return nil, err
	}

	quoting := a.config.Defaults.Quoting
	if cmd.Flags().Changed("quoting") {
		quoting = a.flags.quoting
	}

	esc, err := sshrpc.ParseQuoting(quoting)
	if err != nil {
		return nil, err
	}

	cfg.Quoting = esc

	s, err := session.Open(cmd.Context(), session.WithConfig(cfg), session.WithLogger(a.log))
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	return s, nil
}

// execOptions returns options shared by every command the CLI runs remotely.
func (a *app) execOptions(cmd *cobra.Command) ([]sshrpc.ExecOption, error) {
	var opts []sshrpc.ExecOption

	timeout := a.config.Defaults.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = a.flags.timeout
	}

	if timeout > 0 {
		opts = append(opts, sshrpc.WithTimeout(timeout))
	}

	if a.flags.sshArgs != "" {
		args, err := sshrpc.ParseSSHArgs(a.flags.sshArgs)
		if err != nil {
			return nil, err
		}

		opts = append(opts, sshrpc.WithSSHArgs(args...))
	}

	return opts, nil
}

// withSession opens a session, runs fn and closes the session afterwards.
func (a *app) withSession(cmd *cobra.Command, fn func(s *session.Session) error) error {
	s, err := a.open(cmd)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := s.Close(); cerr != nil {
			a.log.Warn().Err(cerr).Msg("close failed")
		}
	}()

	return fn(s)
}
