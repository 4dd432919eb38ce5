package facts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ruffel/sshrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type reply struct {
	stdout string
	code   int
}

// scripted answers commands from a fixed table; unknown commands exit 127.
type scripted struct {
	mu      sync.Mutex
	replies map[string]reply
	seen    []string
}

func (s *scripted) Execute(_ context.Context, cmd *sshrpc.Command) (*sshrpc.Result, error) {
	s.mu.Lock()
	s.seen = append(s.seen, cmd.Cmd)
	s.mu.Unlock()

	r, ok := s.replies[cmd.Cmd]
	if !ok {
		r = reply{code: 127}
	}

	if cmd.Capture != nil {
		cmd.Capture.Stdout = r.stdout
	}

	res := &sshrpc.Result{ExitCode: r.code, Stdout: []byte(r.stdout)}
	if r.code != cmd.ExpectedReturn {
		return res, &sshrpc.MismatchError{Command: cmd.Cmd, Expected: cmd.ExpectedReturn, Observed: r.code}
	}

	return res, nil
}

func ubuntu() *scripted {
	return &scripted{replies: map[string]reply{
		"uname -a":                  {stdout: "Linux web01 6.8.0-45-generic #45-Ubuntu SMP x86_64 GNU/Linux\n"},
		"uname -s":                  {stdout: "Linux\n"},
		"uname -p":                  {stdout: "x86_64\n"},
		"hostname":                  {stdout: "web01\n"},
		"lsb_release -d":            {stdout: "Description:\tUbuntu 24.04.1 LTS\n"},
		"lsb_release -r":            {stdout: "Release:\t24.04\n"},
		"[ -f /etc/debian_version ]": {},
		pythonCommand("python3", "import platform; print(platform.system())"):  {stdout: "Linux\n"},
		pythonCommand("python3", "import platform; print(platform.machine())"): {stdout: "x86_64\n"},
		"python3 -m platform": {stdout: "Linux-6.8.0-45-generic-x86_64-with-glibc2.39\n"},
	}}
}

func TestDetectPlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		replies map[string]reply
		want    Platform
	}{
		{
			name: "processor reported",
			replies: map[string]reply{
				"uname -s": {stdout: "Linux\n"},
				"uname -p": {stdout: "aarch64\n"},
			},
			want: Platform{OS: "Linux", Arch: "aarch64"},
		},
		{
			name: "unknown processor falls back to machine",
			replies: map[string]reply{
				"uname -s": {stdout: "Linux\n"},
				"uname -p": {stdout: "unknown\n"},
				"uname -m": {stdout: "x86_64\n"},
			},
			want: Platform{OS: "Linux", Arch: "x86_64"},
		},
		{
			name: "marketing string falls back to machine",
			replies: map[string]reply{
				"uname -s": {stdout: "Linux\n"},
				"uname -p": {stdout: "Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz\n"},
				"uname -m": {stdout: "x86_64\n"},
			},
			want: Platform{OS: "Linux", Arch: "x86_64"},
		},
		{
			name: "solaris kernel isa",
			replies: map[string]reply{
				"uname -s":            {stdout: "SunOS\n"},
				"uname -p":            {stdout: "i386\n"},
				"/usr/bin/isainfo -k": {stdout: "amd64\n"},
			},
			want: Platform{OS: "SunOS", Arch: "amd64"},
		},
		{
			name: "cygwin",
			replies: map[string]reply{
				"uname -s": {stdout: "CYGWIN_NT-10.0\n"},
				"uname -p": {stdout: "x86_64\n"},
			},
			want: Platform{OS: "CYGWIN_NT-10.0", Arch: "x86_64", Windows: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DetectPlatform(context.Background(), &scripted{replies: tt.replies})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectDistro(t *testing.T) {
	t.Parallel()

	d, err := DetectDistro(context.Background(), ubuntu(), Platform{OS: "Linux"})
	require.NoError(t, err)
	assert.Equal(t, &Distro{Family: "debian", Description: "Ubuntu 24.04.1 LTS", Release: "24.04"}, d)

	target := &scripted{replies: map[string]reply{}}
	d, err = DetectDistro(context.Background(), target, Platform{OS: "Darwin"})
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.Empty(t, target.seen)
}

func TestGather(t *testing.T) {
	t.Parallel()

	f, err := Gather(context.Background(), ubuntu())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(f.Uname, "Linux web01"))
	assert.Equal(t, "web01", f.Hostname)
	assert.Equal(t, Platform{OS: "Linux", Arch: "x86_64"}, f.Platform)
	require.NotNil(t, f.Distro)
	assert.Equal(t, "debian", f.Distro.Family)
	require.NotNil(t, f.Python)
	assert.Equal(t, "python3", f.Python.Interpreter)
	assert.Equal(t, "x86_64", f.Python.Machine)

	out, err := f.YAML()
	require.NoError(t, err)

	var decoded Facts
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, *f, decoded)
}

func TestGather_Failure(t *testing.T) {
	t.Parallel()

	_, err := Gather(context.Background(), &scripted{replies: map[string]reply{}})
	require.Error(t, err)

	var mismatch *sshrpc.MismatchError
	assert.True(t, errors.As(err, &mismatch))
	assert.Contains(t, err.Error(), "uname -a")
}
