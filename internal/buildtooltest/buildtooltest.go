// Package buildtooltest contains code for testing the build packages.
package buildtooltest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/ooni/build-libssl/internal/shellx"
	"github.com/ooni/build-libssl/internal/shellx/shellxtesting"
	"golang.org/x/sys/execabs"
)

// ExecExpectations describes what we expect to see in an exec
// or exec-like call to a subprocess.
type ExecExpectations struct {
	// Dir is the OPTIONAL working directory we expect.
	Dir string

	// Env contains the environment variables we expect to see
	// on top of the ones inherited from this process.
	Env []string

	// Argv contains the expected argv. We compare argv[0] with the
	// suffix of the command path, to ignore PATH lookups.
	Argv []string
}

// ErrCommandsMismatch means that the collected commands are
// not the ones we expected to see.
var ErrCommandsMismatch = errors.New("buildtooltest: commands mismatch")

// CheckManyCommands compares the given commands with the expectations.
func CheckManyCommands(cmds []*execabs.Cmd, tee []ExecExpectations) error {
	if len(cmds) != len(tee) {
		return fmt.Errorf("%w: expected %d commands, got %d", ErrCommandsMismatch, len(tee), len(cmds))
	}
	for idx := 0; idx < len(cmds); idx++ {
		if err := CheckSingleCommand(cmds[idx], tee[idx]); err != nil {
			return fmt.Errorf("command #%d: %w", idx, err)
		}
	}
	return nil
}

// CheckSingleCommand compares a single command with its expectations.
func CheckSingleCommand(cmd *execabs.Cmd, tee ExecExpectations) error {
	if tee.Dir != "" && cmd.Dir != tee.Dir {
		return fmt.Errorf("%w: expected dir %s, got %s", ErrCommandsMismatch, tee.Dir, cmd.Dir)
	}
	env := shellxtesting.RemoveCommonEnvironmentVariables(cmd)
	expectEnv := tee.Env
	if expectEnv == nil {
		expectEnv = []string{}
	}
	if diff := cmp.Diff(expectEnv, env); diff != "" {
		return fmt.Errorf("%w: environment: %s", ErrCommandsMismatch, diff)
	}
	argv := shellxtesting.MustArgv(cmd)
	if len(argv) != len(tee.Argv) {
		return fmt.Errorf("%w: argv: expected %v, got %v", ErrCommandsMismatch, tee.Argv, argv)
	}
	if len(tee.Argv) > 0 && !strings.HasSuffix(argv[0], tee.Argv[0]) {
		return fmt.Errorf("%w: argv[0]: expected %s, got %s", ErrCommandsMismatch, tee.Argv[0], argv[0])
	}
	if diff := cmp.Diff(tee.Argv[1:], argv[1:]); diff != "" {
		return fmt.Errorf("%w: argv: %s", ErrCommandsMismatch, diff)
	}
	return nil
}

// SimpleCommandCollector implements [shellx.Dependencies] by
// collecting commands rather than executing them.
type SimpleCommandCollector struct {
	// Commands contains the collected commands.
	Commands []*execabs.Cmd

	// OnCommand is the OPTIONAL hook called for each collected command. Tests
	// use it to simulate side effects, outputs, and failures.
	OnCommand func(c *execabs.Cmd) ([]byte, error)

	mu sync.Mutex
}

var _ shellx.Dependencies = &SimpleCommandCollector{}

// CmdOutput implements [shellx.Dependencies].
func (cc *SimpleCommandCollector) CmdOutput(c *execabs.Cmd) ([]byte, error) {
	return cc.collect(c)
}

// CmdRun implements [shellx.Dependencies].
func (cc *SimpleCommandCollector) CmdRun(c *execabs.Cmd) error {
	_, err := cc.collect(c)
	return err
}

// LookPath implements [shellx.Dependencies].
func (cc *SimpleCommandCollector) LookPath(file string) (string, error) {
	return file, nil
}

func (cc *SimpleCommandCollector) collect(c *execabs.Cmd) ([]byte, error) {
	cc.mu.Lock()
	cc.Commands = append(cc.Commands, c)
	hook := cc.OnCommand
	cc.mu.Unlock()
	if hook != nil {
		return hook(c)
	}
	return []byte{}, nil
}
