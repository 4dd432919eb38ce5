package session

import (
	"fmt"
	"strconv"

	"github.com/ruffel/sshrpc"
)

// Host returns the remote host.
func (s *Session) Host() string { return s.cfg.Host }

// Login returns the remote user.
func (s *Session) Login() string { return s.cfg.Login }

// Port returns the configured port, or 0 when the client default applies.
func (s *Session) Port() int { return s.cfg.Port }

// Binary returns the ssh client binary.
func (s *Session) Binary() string { return s.cfg.Binary }

// Identity returns the private key path.
func (s *Session) Identity() string { return s.cfg.Identity }

// Fingerprint returns the SHA256 fingerprint of the identity, if it could be derived.
func (s *Session) Fingerprint() string { return s.fingerprint }

// Escaper returns the quoting policy used for remote command lines.
func (s *Session) Escaper() sshrpc.Escaper { return s.cfg.Quoting }

// Runner returns the process runner the Session invokes the client through.
func (s *Session) Runner() sshrpc.Runner { return s.runner }

// Args returns a copy of the negotiated transport arguments, or nil before negotiation.
func (s *Session) Args() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.negotiated == nil {
		return nil
	}

	return append([]string(nil), s.negotiated.Args...)
}

// TransportArgv returns binary, negotiated args and extra, ready for a process runner.
// The host is not included.
func (s *Session) TransportArgv(extra ...string) ([]string, error) {
	n, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	return s.transport(n, extra), nil
}

// Master reports whether master mode is in effect after negotiation.
func (s *Session) Master() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.negotiated != nil && s.negotiated.Master
}

// Banner returns the classified client banner, or the zero Banner before negotiation.
func (s *Session) Banner() Banner {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.negotiated == nil {
		return Banner{}
	}

	return s.negotiated.Banner
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// ActiveExecutions returns the number of Execute calls in flight.
func (s *Session) ActiveExecutions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

func (s *Session) String() string {
	target := s.cfg.Login + "@" + s.cfg.Host
	if s.cfg.Port > 0 {
		target += ":" + strconv.Itoa(s.cfg.Port)
	}

	return fmt.Sprintf("session(%s, %s)", target, s.State())
}
