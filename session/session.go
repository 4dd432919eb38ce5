package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/ruffel/sshrpc"
	"golang.org/x/sync/singleflight"
)

var _ sshrpc.Target = (*Session)(nil)

// homeProbe prints $HOME only if it names an existing directory.
const homeProbe = "[ -d $HOME ] && echo $HOME"

// State is the lifecycle position of a Session.
type State int

const (
	StateUninitialized State = iota
	StateNegotiated
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateNegotiated:
		return "negotiated"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session runs commands on one remote host through the system ssh client.
// It is safe for concurrent use once opened.
type Session struct {
	cfg         Config
	log         zerolog.Logger
	runner      sshrpc.Runner
	fingerprint string

	flight singleflight.Group

	mu         sync.RWMutex
	state      State
	closed     bool
	negotiated *Negotiated
	masterOpen bool
	home       string
	active     int
}

// New validates the configuration and the identity file. It performs no remote I/O.
func New(opts ...Option) (*Session, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fingerprint, err := checkCredential(cfg.Identity)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger.With().Str("host", cfg.Host).Str("login", cfg.Login).Logger()

	return &Session{
		cfg:         cfg,
		log:         log,
		runner:      cfg.Runner,
		fingerprint: fingerprint,
	}, nil
}

// Open constructs a Session and opens it. On failure nothing is left running.
func Open(ctx context.Context, opts ...Option) (*Session, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}

	if err := s.Open(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Open negotiates client arguments, connects, and resolves the remote home directory.
// Any failure tears down a master connection that was opened along the way.
func (s *Session) Open(ctx context.Context) error {
	if err := s.negotiate(ctx); err != nil {
		return err
	}

	ok, err := s.Connect(ctx)
	if err != nil {
		s.abort()

		return fmt.Errorf("%w %s: %w", sshrpc.ErrConnectFailed, s.cfg.Host, err)
	}

	if !ok {
		s.abort()

		return fmt.Errorf("%w %s", sshrpc.ErrConnectFailed, s.cfg.Host)
	}

	home, err := s.Home(ctx)
	if err != nil {
		s.abort()

		return err
	}

	s.log.Info().Bool("master", s.Master()).Str("home", home).Str("fingerprint", s.fingerprint).Msg("session opened")

	return nil
}

// Connect establishes connectivity.
//
// In master mode it launches the background master process and reports whether
// the launch succeeded; the master's own outcome is only logged. Otherwise it
// runs a liveness probe and reports whether the probe exited 0.
func (s *Session) Connect(ctx context.Context) (bool, error) {
	v, err, _ := s.flight.Do("connect", func() (any, error) {
		return s.connect(ctx)
	})
	if err != nil {
		return false, err
	}

	return v.(bool), nil
}

func (s *Session) connect(ctx context.Context) (bool, error) {
	n, err := s.snapshot()
	if err != nil {
		return false, err
	}

	if !n.Master {
		return s.probe(ctx, n)
	}

	s.mu.RLock()
	open := s.masterOpen
	s.mu.RUnlock()

	if open {
		return true, nil
	}

	argv := s.transport(n, nil, "-fnN", s.cfg.Host, "-o", "ControlMaster=yes")
	s.log.Debug().Strs("argv", argv).Msg("opening master connection")

	proc, err := s.runner.Start(ctx, argv, sshrpc.StartOptions{})
	if err != nil {
		s.log.Error().Err(err).Msg("master connection failed to launch")

		return false, err
	}

	s.mu.Lock()
	s.masterOpen = true
	s.state = StateConnected
	s.mu.Unlock()

	go s.reap(proc)

	return true, nil
}

func (s *Session) probe(ctx context.Context, n *Negotiated) (bool, error) {
	argv := s.transport(n, nil, s.cfg.Host, "true")
	s.log.Debug().Strs("argv", argv).Msg("probing connectivity")

	res, err := s.runner.Run(ctx, argv, s.runOptions(false, 0))
	if err != nil {
		return false, err
	}

	if !res.Success() {
		s.log.Warn().Str("result", res.Observed()).Msg("connectivity probe failed")

		return false, nil
	}

	s.setState(StateConnected)

	return true, nil
}

// reap waits for the foreground half of "ssh -f" and records whether the master came up.
func (s *Session) reap(proc sshrpc.Process) {
	defer func() { _ = proc.Close() }()

	if err := proc.Wait(); err != nil {
		s.log.Warn().Err(err).Msg("master connection process failed")

		return
	}

	res := proc.Result()
	if res == nil || res.Success() {
		s.log.Debug().Msg("master connection established")

		return
	}

	s.log.Warn().Int("exit_code", res.ExitCode).Msg("master connection exited with an error")

	s.mu.Lock()
	s.masterOpen = false
	s.mu.Unlock()
}

// Execute runs cmd on the remote host.
//
// A Result is returned whenever the process ran. If the exit code differs from
// cmd.ExpectedReturn, or the timeout fired, a *sshrpc.MismatchError is returned
// alongside it.
func (s *Session) Execute(ctx context.Context, cmd *sshrpc.Command) (*sshrpc.Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	n, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	s.track(1)
	defer s.track(-1)

	line := cmd.RemoteLine(s.cfg.Quoting)
	argv := s.transport(n, cmd.SSHArgs, s.cfg.Host, line)

	log := s.log.With().Str("command", line).Logger()
	log.Debug().Strs("argv", argv).Dur("timeout", cmd.Timeout).Msg("executing")

	res, err := s.runner.Run(ctx, argv, s.runOptions(cmd.Capture != nil, cmd.Timeout))
	if err != nil {
		log.Error().Err(err).Msg("execution failed")

		return nil, err
	}

	if cmd.Capture != nil {
		cmd.Capture.Stdout = string(res.Stdout)
		cmd.Capture.Stderr = string(res.Stderr)
	}

	if res.TimedOut {
		log.Warn().Dur("timeout", cmd.Timeout).Msg("command timed out")
	} else {
		log.Debug().Int("exit_code", res.ExitCode).Dur("duration", res.Duration).Msg("command finished")
	}

	if res.TimedOut || res.ExitCode != cmd.ExpectedReturn {
		return res, &sshrpc.MismatchError{
			Command:  line,
			Argv:     argv,
			Expected: cmd.ExpectedReturn,
			Observed: res.ExitCode,
			TimedOut: res.TimedOut,
			Stderr:   res.Stderr,
		}
	}

	return res, nil
}

// Run executes raw command text with the given options.
func (s *Session) Run(ctx context.Context, text string, opts ...sshrpc.ExecOption) (*sshrpc.Result, error) {
	return s.Execute(ctx, sshrpc.NewCommand(text, opts...))
}

// Home returns the remote home directory, resolving it on first use.
// Once resolved the value is cached for the life of the Session.
func (s *Session) Home(ctx context.Context) (string, error) {
	s.mu.RLock()
	home := s.home
	s.mu.RUnlock()

	if home != "" {
		return home, nil
	}

	v, err, _ := s.flight.Do("home", func() (any, error) {
		return s.resolveHome(ctx)
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

func (s *Session) resolveHome(ctx context.Context) (string, error) {
	s.mu.RLock()
	home := s.home
	s.mu.RUnlock()

	if home != "" {
		return home, nil
	}

	var capture sshrpc.Capture

	if _, err := s.Execute(ctx, sshrpc.NewCommand(homeProbe, sshrpc.WithCapture(&capture))); err != nil {
		return "", fmt.Errorf("%w on %s: %w", sshrpc.ErrNoHome, s.cfg.Host, err)
	}

	home = strings.TrimSpace(capture.Stdout)
	if home == "" {
		return "", fmt.Errorf("%w on %s", sshrpc.ErrNoHome, s.cfg.Host)
	}

	s.mu.Lock()
	s.home = home
	s.mu.Unlock()

	return home, nil
}

// Disconnect tears down the master connection. It is a no-op without master mode.
// In-flight executions are not waited for.
func (s *Session) Disconnect(ctx context.Context) error {
	_, err, _ := s.flight.Do("disconnect", func() (any, error) {
		return nil, s.disconnect(ctx)
	})

	return err
}

func (s *Session) disconnect(ctx context.Context) error {
	s.mu.RLock()
	n, open := s.negotiated, s.masterOpen
	s.mu.RUnlock()

	if n == nil || !n.Master || !open {
		return nil
	}

	argv := s.transport(n, nil, "-o", "ControlMaster=auto", "-fnN", "-O", "exit", s.cfg.Host)
	s.log.Debug().Strs("argv", argv).Msg("closing master connection")

	res, err := s.runner.Run(ctx, argv, s.runOptions(true, 0))
	if err != nil {
		s.log.Error().Err(err).Msg("master teardown failed")

		return &sshrpc.TeardownError{Host: s.cfg.Host, ExitCode: sshrpc.NoExitCode, Err: err}
	}

	if res.ExitCode != 0 {
		s.log.Error().Int("exit_code", res.ExitCode).Bytes("stderr", res.Stderr).Msg("master teardown failed")

		return &sshrpc.TeardownError{Host: s.cfg.Host, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	s.mu.Lock()
	s.masterOpen = false
	s.state = StateDisconnected
	s.mu.Unlock()

	s.log.Info().Msg("master connection closed")

	return nil
}

// Close tears down the master connection and makes the Session unusable.
// Calling Close more than once is safe.
func (s *Session) Close() error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ConnectTimeout+5*time.Second)
	defer cancel()

	err := s.Disconnect(ctx)

	s.mu.Lock()
	s.closed = true
	s.state = StateDisconnected
	s.mu.Unlock()

	return err
}

// abort closes the Session after a failed Open.
func (s *Session) abort() {
	s.mu.Lock()
	open := s.masterOpen
	if !open {
		s.closed = true
		s.state = StateDisconnected
	}
	s.mu.Unlock()

	if !open {
		return
	}

	if err := s.Close(); err != nil {
		s.log.Warn().Err(err).Msg("cleanup after failed open")
	}
}

func (s *Session) negotiate(ctx context.Context) error {
	_, err, _ := s.flight.Do("negotiate", func() (any, error) {
		s.mu.RLock()
		done, closed := s.negotiated != nil, s.closed
		s.mu.RUnlock()

		if closed {
			return nil, sshrpc.ErrSessionClosed
		}

		if done {
			return nil, nil
		}

		sessreg := s.cfg.Sessreg
		if s.cfg.DisableSessreg {
			sessreg = ""
		}

		s.log.Debug().Str("fingerprint", s.fingerprint).Bool("master", s.cfg.Master).Msg("negotiating ssh client")

		n, err := Negotiate(ctx, s.runner, NegotiateParams{
			Binary:         s.cfg.Binary,
			Login:          s.cfg.Login,
			Identity:       s.cfg.Identity,
			Port:           s.cfg.Port,
			Master:         s.cfg.Master,
			ControlDir:     s.cfg.ControlDir,
			ConnectTimeout: s.cfg.ConnectTimeout,
			Sessreg:        sessreg,
			PollInterval:   s.cfg.PollInterval,
			Logger:         s.log,
		})
		if err != nil {
			s.log.Error().Err(err).Msg("negotiation failed")

			return nil, err
		}

		s.mu.Lock()
		s.negotiated = n
		s.state = StateNegotiated
		s.mu.Unlock()

		return nil, nil
	})

	return err
}

// snapshot returns the negotiated arguments, or an error if the Session cannot run commands.
func (s *Session) snapshot() (*Negotiated, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, sshrpc.ErrSessionClosed
	}

	if s.negotiated == nil {
		return nil, sshrpc.ErrNotNegotiated
	}

	return s.negotiated, nil
}

// transport assembles binary, negotiated args, per-call extras, then tail.
func (s *Session) transport(n *Negotiated, extra []string, tail ...string) []string {
	argv := make([]string, 0, 1+len(n.Args)+len(extra)+len(tail))
	argv = append(argv, s.cfg.Binary)
	argv = append(argv, n.Args...)
	argv = append(argv, extra...)

	return append(argv, tail...)
}

func (s *Session) runOptions(capture bool, timeout time.Duration) sshrpc.RunOptions {
	return sshrpc.RunOptions{
		Capture:         capture,
		Timeout:         timeout,
		PollInterval:    s.cfg.PollInterval,
		TerminateSignal: s.cfg.TerminateSignal,
	}
}

func (s *Session) track(delta int) {
	s.mu.Lock()
	s.active += delta
	s.mu.Unlock()
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
