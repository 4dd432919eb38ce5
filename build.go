package sshrpc

import (
	"fmt"
	"sort"
	"strings"
)

// Escaper makes a single word safe to place on the remote command line.
type Escaper func(string) string

// EscapeSpaces backslash-escapes spaces and nothing else.
//
// It does not neutralize ';', '&', '$' or quotes. Values that may contain
// shell metacharacters should use QuoteShell.
func EscapeSpaces(s string) string {
	return strings.ReplaceAll(s, " ", `\ `)
}

// QuoteShell wraps s in POSIX single quotes (' -> '\'').
func QuoteShell(s string) string {
	if s == "" {
		return "''"
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ParseQuoting maps a quoting policy name ("spaces", "shell") to an Escaper.
func ParseQuoting(name string) (Escaper, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "spaces":
		return EscapeSpaces, nil
	case "shell":
		return QuoteShell, nil
	default:
		return nil, fmt.Errorf("unknown quoting policy %q (want spaces or shell)", name)
	}
}

// BuildRemoteCommand composes the remote command line:
//
//	[cd DIR &&] [KEY=VALUE ...] BASE
//
// Environment keys are emitted in sorted order; values and dir go through esc.
func BuildRemoteCommand(base, dir string, env map[string]string, esc Escaper) string {
	if esc == nil {
		esc = EscapeSpaces
	}

	parts := make([]string, 0, len(env)+3)

	if dir != "" {
		parts = append(parts, "cd", esc(dir), "&&")
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		parts = append(parts, k+"="+esc(env[k]))
	}

	if base != "" {
		parts = append(parts, base)
	}

	return strings.Join(parts, " ")
}

// RemoteLine returns the full remote command line for c using esc.
func (c *Command) RemoteLine(esc Escaper) string {
	if esc == nil {
		esc = EscapeSpaces
	}

	return BuildRemoteCommand(c.baseLine(esc), c.Dir, c.Env, esc)
}

func (c *Command) baseLine(esc Escaper) string {
	base := c.Cmd

	if len(c.Args) > 0 {
		words := make([]string, 0, len(c.Args)+1)
		words = append(words, c.Cmd)

		for _, arg := range c.Args {
			words = append(words, esc(arg))
		}

		base = strings.Join(words, " ")
	}

	if c.Sudo != nil {
		base = applySudo(c.Sudo, base)
	}

	return base
}

// applySudo wraps line in "sudo -n [flags] -- sh -c '<line>'" so shell operators
// in raw command text stay under sudo.
func applySudo(s *SudoConfig, line string) string {
	words := []string{"sudo", "-n"}

	if s.User != "" {
		words = append(words, "-u", s.User)
	}

	if s.Group != "" {
		words = append(words, "-g", s.Group)
	}

	if s.PreserveEnv {
		words = append(words, "-E")
	}

	words = append(words, s.CustomFlags...)
	words = append(words, "--", "sh", "-c", QuoteShell(line))

	return strings.Join(words, " ")
}
