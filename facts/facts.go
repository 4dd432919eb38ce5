// Package facts gathers system information from a target host.
package facts

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruffel/sshrpc"
	"gopkg.in/yaml.v3"
)

// Platform is the operating system and processor architecture of a host.
type Platform struct {
	OS      string `yaml:"os"`
	Arch    string `yaml:"arch"`
	Windows bool   `yaml:"windows,omitempty"`
}

// Distro describes a Linux distribution. It is empty on other systems.
type Distro struct {
	Family      string `yaml:"family,omitempty"` // debian or redhat, from marker files
	Description string `yaml:"description,omitempty"`
	Release     string `yaml:"release,omitempty"`
}

// Python holds the platform strings reported by the remote interpreter.
type Python struct {
	Interpreter string `yaml:"interpreter"`
	Platform    string `yaml:"platform,omitempty"`
	System      string `yaml:"system,omitempty"`
	Machine     string `yaml:"machine,omitempty"`
}

// Facts is the combined result of Gather.
type Facts struct {
	Uname    string   `yaml:"uname"`
	Hostname string   `yaml:"hostname,omitempty"`
	Platform Platform `yaml:"platform"`
	Distro   *Distro  `yaml:"distro,omitempty"`
	Python   *Python  `yaml:"python,omitempty"`
}

// Uname returns the output of "uname <options>". Empty options mean -a.
func Uname(ctx context.Context, t sshrpc.Target, options string) (string, error) {
	if options == "" {
		options = "-a"
	}

	out, err := sshrpc.NewExecutor(t).Output(ctx, "uname "+options)
	if err != nil {
		return "", fmt.Errorf("uname %s: %w", options, err)
	}

	return out, nil
}

// DetectPlatform determines OS and architecture.
//
// The architecture comes from "uname -p" and falls back to "uname -m" when
// that is empty, "unknown", or a CPU marketing string. 32-bit-looking Solaris
// x86 hosts are asked for their kernel ISA.
func DetectPlatform(ctx context.Context, t sshrpc.Target) (Platform, error) {
	osName, err := Uname(ctx, t, "-s")
	if err != nil {
		return Platform{}, err
	}

	// uname -p is not universal; a failure is the same as "unknown".
	arch, _ := Uname(ctx, t, "-p")

	if arch == "" || arch == "unknown" || strings.Contains(arch, "Intel(R)") {
		if arch, err = Uname(ctx, t, "-m"); err != nil {
			return Platform{}, err
		}
	}

	if osName == "SunOS" && arch == "i386" {
		if isa, err := sshrpc.NewExecutor(t).Output(ctx, "/usr/bin/isainfo -k"); err == nil && isa != "" {
			arch = isa
		}
	}

	return Platform{
		OS:      osName,
		Arch:    arch,
		Windows: strings.Contains(strings.ToLower(osName), "cygwin"),
	}, nil
}

// DetectDistro reads lsb_release and the debian/redhat marker files.
// It returns nil for hosts that are not Linux.
func DetectDistro(ctx context.Context, t sshrpc.Target, p Platform) (*Distro, error) {
	if !strings.Contains(strings.ToLower(p.OS), "linux") {
		return nil, nil //nolint:nilnil // Not applicable
	}

	exec := sshrpc.NewExecutor(t)
	d := &Distro{}

	if out, err := exec.Output(ctx, "lsb_release -d"); err == nil {
		d.Description = lsbValue(out, "Description:")
	}

	if out, err := exec.Output(ctx, "lsb_release -r"); err == nil {
		d.Release = lsbValue(out, "Release:")
	}

	for _, marker := range []struct{ file, family string }{
		{"/etc/debian_version", "debian"},
		{"/etc/redhat-release", "redhat"},
	} {
		ok, err := exec.Succeeds(ctx, "[ -f "+marker.file+" ]")
		if err != nil {
			return nil, err
		}

		if ok {
			d.Family = marker.family

			break
		}
	}

	return d, nil
}

// DetectPython asks the first available interpreter for its platform strings.
// It returns nil when no interpreter answers.
func DetectPython(ctx context.Context, t sshrpc.Target) *Python {
	exec := sshrpc.NewExecutor(t)

	for _, interp := range []string{"python3", "python"} {
		system, err := exec.Output(ctx, pythonCommand(interp, "import platform; print(platform.system())"))
		if err != nil || system == "" {
			continue
		}

		py := &Python{Interpreter: interp, System: system}
		py.Machine, _ = exec.Output(ctx, pythonCommand(interp, "import platform; print(platform.machine())"))
		py.Platform, _ = exec.Output(ctx, interp+" -m platform")

		return py
	}

	return nil
}

// Gather collects every fact. Missing optional tools (lsb_release, python) are
// tolerated; a target that cannot run commands at all is an error.
func Gather(ctx context.Context, t sshrpc.Target) (*Facts, error) {
	uname, err := Uname(ctx, t, "-a")
	if err != nil {
		return nil, err
	}

	platform, err := DetectPlatform(ctx, t)
	if err != nil {
		return nil, err
	}

	f := &Facts{Uname: uname, Platform: platform}

	if host, err := sshrpc.NewExecutor(t).Output(ctx, "hostname"); err == nil {
		f.Hostname = host
	}

	if f.Distro, err = DetectDistro(ctx, t, platform); err != nil {
		return nil, err
	}

	f.Python = DetectPython(ctx, t)

	return f, nil
}

// YAML renders f as a YAML document.
func (f *Facts) YAML() ([]byte, error) {
	out, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode facts: %w", err)
	}

	return out, nil
}

func pythonCommand(interp, program string) string {
	return interp + " -c " + sshrpc.QuoteShell(program)
}

// lsbValue strips the "Key:<tab>" prefix lsb_release puts before the value.
func lsbValue(out, key string) string {
	if _, v, ok := strings.Cut(out, key); ok {
		return strings.TrimSpace(v)
	}

	return strings.TrimSpace(out)
}
