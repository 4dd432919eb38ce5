package session

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/ruffel/sshrpc"
)

// Banner is the classified output of "ssh -V".
type Banner struct {
	Raw     string
	OpenSSH bool // Known implementation
	Debian  bool // Debian build: SetupTimeOut/ServerAliveInterval instead of ConnectTimeout
	Legacy  bool // OpenSSH 3.x: no usable connection multiplexing
}

// ClassifyBanner inspects a version banner. Matching is case-insensitive.
func ClassifyBanner(raw string) Banner {
	lower := strings.ToLower(raw)

	b := Banner{Raw: strings.TrimSpace(raw)}
	if !strings.Contains(lower, "openssh") {
		return b
	}

	b.OpenSSH = true
	b.Debian = strings.Contains(lower, "debian")
	b.Legacy = strings.Contains(lower, "openssh_3")

	return b
}

// Multiplexing reports whether the client supports a master connection.
func (b Banner) Multiplexing() bool {
	return b.OpenSSH && !b.Legacy
}

func (b Banner) String() string {
	if b.Raw == "" {
		return "unknown"
	}

	return b.Raw
}

// NegotiateParams is the input to Negotiate.
type NegotiateParams struct {
	Binary         string
	Login          string
	Identity       string
	Port           int
	Master         bool
	ControlDir     string
	ConnectTimeout time.Duration
	Sessreg        string // Empty skips the session-registration workaround

	PollInterval time.Duration
	Logger       zerolog.Logger
}

// Negotiated is the outcome of a successful negotiation.
type Negotiated struct {
	Args   []string // Baseline transport arguments, excluding the binary and host
	Master bool     // Effective master mode after capability checks
	Banner Banner
}

// Negotiate probes the ssh client version and derives the baseline argument list.
//
// Unknown implementations get the baseline arguments only and master mode is
// disabled. OpenSSH 3.x keeps its timeout options but loses master mode.
func Negotiate(ctx context.Context, r sshrpc.Runner, p NegotiateParams) (*Negotiated, error) {
	if p.Sessreg != "" {
		registerSession(ctx, r, p)
	}

	argv := []string{p.Binary, "-V"}

	res, err := r.Run(ctx, argv, sshrpc.RunOptions{Capture: true, PollInterval: p.PollInterval})
	if err != nil {
		return nil, &sshrpc.NegotiationError{Argv: argv, Err: err}
	}

	raw := string(res.Stderr)
	if strings.TrimSpace(raw) == "" {
		raw = string(res.Stdout)
	}

	if res.ExitCode != 0 {
		return nil, &sshrpc.NegotiationError{
			Argv:   argv,
			Banner: strings.TrimSpace(raw),
			Err:    fmt.Errorf("version probe exited with code %d", res.ExitCode),
		}
	}

	// An empty banner classifies as unrecognized.
	banner := ClassifyBanner(raw)

	out := &Negotiated{
		Args:   baselineArgs(p.Login, p.Identity, p.Port),
		Banner: banner,
	}

	if !banner.OpenSSH {
		p.Logger.Warn().Str("banner", banner.Raw).Msg("unrecognized ssh client, using baseline arguments only")

		return out, nil
	}

	out.Args = append(out.Args, timeoutArgs(banner, p.ConnectTimeout)...)

	switch {
	case !p.Master:
	case !banner.Multiplexing():
		p.Logger.Info().Str("banner", banner.Raw).Msg("ssh client predates connection multiplexing, master mode disabled")
	default:
		out.Master = true
		out.Args = append(out.Args, "-S", ControlPath(p.ControlDir))
	}

	p.Logger.Debug().
		Str("banner", banner.Raw).
		Bool("master", out.Master).
		Strs("args", out.Args).
		Msg("negotiated ssh client")

	return out, nil
}

// ControlPath returns the master socket path template inside dir.
// The %r, %h and %p tokens are expanded by the ssh client.
func ControlPath(dir string) string {
	return filepath.Join(dir, "master-%r@%h:%p")
}

func baselineArgs(login, identity string, port int) []string {
	args := []string{
		"-q",
		"-l", login,
		"-i", identity,
		"-o", "StrictHostKeyChecking=no",
		"-o", "PreferredAuthentications=publickey",
	}

	if port > 0 {
		args = append(args, "-p", strconv.Itoa(port))
	}

	return args
}

func timeoutArgs(b Banner, d time.Duration) []string {
	secs := strconv.Itoa(int(math.Ceil(d.Seconds())))

	if b.Debian {
		return []string{"-o", "SetupTimeOut=" + secs, "-o", "ServerAliveInterval=" + secs}
	}

	return []string{"-o", "ConnectTimeout=" + secs}
}

// registerSession runs the sessreg workaround. Its outcome never affects negotiation.
func registerSession(ctx context.Context, r sshrpc.Runner, p NegotiateParams) {
	argv := []string{p.Sessreg, "-w", "/var/run/utmpx", "-a", p.Login + "\r"}

	res, err := r.Run(ctx, argv, sshrpc.RunOptions{Capture: true, PollInterval: p.PollInterval})
	if err != nil {
		p.Logger.Debug().Err(err).Msg("session registration unavailable")

		return
	}

	if res.ExitCode != 0 {
		p.Logger.Debug().Int("exit_code", res.ExitCode).Msg("session registration failed")
	}
}
