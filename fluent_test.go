package sshrpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_Cmd(t *testing.T) {
	t.Parallel()

	var capture Capture

	cmd := Cmd("ls").
		Arg("-l").
		Arg("-a").
		Dir("/tmp").
		Env("FOO", "bar").
		Capture(&capture).
		Timeout(5 * time.Second).
		SSHArgs("-A").
		Expect(2).
		Build()

	assert.Equal(t, "ls", cmd.Cmd)
	assert.Equal(t, []string{"-l", "-a"}, cmd.Args)
	assert.Equal(t, "/tmp", cmd.Dir)
	assert.Equal(t, map[string]string{"FOO": "bar"}, cmd.Env)
	assert.Same(t, &capture, cmd.Capture)
	assert.Equal(t, 5*time.Second, cmd.Timeout)
	assert.Equal(t, []string{"-A"}, cmd.SSHArgs)
	assert.Equal(t, 2, cmd.ExpectedReturn)
	assert.Nil(t, cmd.Sudo)
}

func TestBuilder_Args(t *testing.T) {
	t.Parallel()

	cmd := Cmd("echo").
		Args("hello", "world").
		Build()

	assert.Equal(t, "echo", cmd.Cmd)
	assert.Equal(t, []string{"hello", "world"}, cmd.Args)
}

func TestBuilder_Sudo(t *testing.T) {
	t.Parallel()

	cmd := Cmd("systemctl restart nginx").Sudo(WithSudoUser("ops")).Build()

	assert.Equal(t, &SudoConfig{User: "ops"}, cmd.Sudo)
}
