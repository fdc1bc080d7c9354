// Package shellx helps to write shell-like Go code.
package shellx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/ooni/build-libssl/internal/fsx"
	"github.com/ooni/build-libssl/internal/model"
	"golang.org/x/sys/execabs"
)

// Dependencies is the library on which this package depends.
type Dependencies interface {
	// CmdOutput is equivalent to calling c.Output.
	CmdOutput(c *execabs.Cmd) ([]byte, error)

	// CmdRun is equivalent to calling c.Run.
	CmdRun(c *execabs.Cmd) error

	// LookPath is equivalent to calling execabs.LookPath.
	LookPath(file string) (string, error)
}

// Library contains the default dependencies.
var Library Dependencies = &StdlibDependencies{}

// StdlibDependencies contains the stdlib implementation of the [Dependencies].
type StdlibDependencies struct{}

// CmdOutput implements [Dependencies].
func (*StdlibDependencies) CmdOutput(c *execabs.Cmd) ([]byte, error) {
	return c.Output()
}

// CmdRun implements [Dependencies].
func (*StdlibDependencies) CmdRun(c *execabs.Cmd) error {
	return c.Run()
}

// LookPath implements [Dependencies].
func (*StdlibDependencies) LookPath(file string) (string, error) {
	return execabs.LookPath(file)
}

// Envp is the environment in which we execute commands.
type Envp struct {
	// V contains the OPTIONAL environment variables to add to the current
	// environment when we're executing commands.
	V []string
}

// Append appends an environment variable to the environment.
func (e *Envp) Append(key, value string) {
	e.V = append(e.V, fmt.Sprintf("%s=%s", key, value))
}

// Argv contains the complete argv.
type Argv struct {
	// P is the MANDATORY program to execute.
	P string

	// V contains the OPTIONAL arguments.
	V []string
}

// NewArgv creates a new [Argv] from the given command and arguments.
//
// Commands containing a path separator (e.g., `./Configure`) are not
// looked up in the PATH, since they are relative to [Config.Dir].
func NewArgv(command string, args ...string) (*Argv, error) {
	fullpath := command
	if !strings.ContainsRune(command, filepath.Separator) {
		var err error
		fullpath, err = Library.LookPath(command) // allows mocking
		if err != nil {
			return nil, err
		}
	}
	argv := &Argv{
		P: fullpath,
		V: args,
	}
	return argv, nil
}

// ParseCommandLine creates an instance of [Argv] from the given command line.
func ParseCommandLine(cmdline string) (*Argv, error) {
	args, err := shlex.Split(cmdline)
	if err != nil {
		return nil, err
	}
	if len(args) < 1 {
		return nil, ErrNoCommandToExecute
	}
	return NewArgv(args[0], args[1:]...)
}

// Append appends arguments to the command line.
func (a *Argv) Append(args ...string) {
	a.V = append(a.V, args...)
}

const (
	// FlagShowStdoutStderr enables connecting the child's stdout and stderr
	// to the current program's stdout and stderr.
	FlagShowStdoutStderr = 1 << iota
)

// Config contains config for executing programs.
type Config struct {
	// Dir is the OPTIONAL working directory of the child.
	Dir string

	// Logger is the OPTIONAL logger to use.
	Logger model.Logger

	// Flags contains OPTIONAL binary flags to configure the program.
	Flags int64

	// Stdout is the OPTIONAL writer for the child's stdout. When set, it
	// takes precedence over [FlagShowStdoutStderr].
	Stdout io.Writer

	// Stderr is like Stdout but for the child's stderr.
	Stderr io.Writer
}

// cmd creates a new [execabs.Cmd] instance.
func cmd(config *Config, argv *Argv, envp *Envp) *execabs.Cmd {
	// Implementation note: since Go 1.19 we don't need to use the execabs
	// package anymore. See <https://tip.golang.org/doc/go1.19>.
	cmd := execabs.Command(argv.P, argv.V...)
	cmd.Dir = config.Dir
	cmd.Env = os.Environ()
	for _, entry := range envp.V {
		if config.Logger != nil {
			config.Logger.Infof("+ export %s", entry)
		}
		cmd.Env = append(cmd.Env, entry)
	}
	if config.Logger != nil {
		cmdline := quotedCommandLine(argv.P, argv.V...)
		if config.Dir != "" {
			config.Logger.Infof("+ (cd %s && %s)", maybeQuoteArg(config.Dir), cmdline)
		} else {
			config.Logger.Infof("+ %s", cmdline)
		}
	}
	return cmd
}

// OutputEx implements [Output].
func OutputEx(config *Config, argv *Argv, envp *Envp) ([]byte, error) {
	cmd := cmd(config, argv, envp)
	switch {
	case config.Stderr != nil:
		cmd.Stderr = config.Stderr
	case (config.Flags & FlagShowStdoutStderr) != 0:
		// note: cmd.Output wants the stdout to be nil
		cmd.Stderr = os.Stderr
	}
	return Library.CmdOutput(cmd) // allows mocking
}

// output is the implementation of [Output].
func output(logger model.Logger, flags int64, command string, args ...string) ([]byte, error) {
	argv, err := NewArgv(command, args...)
	if err != nil {
		return nil, err
	}
	envp := &Envp{}
	config := &Config{
		Logger: logger,
		Flags:  flags,
	}
	return OutputEx(config, argv, envp)
}

// Output runs the given command and returns its standard output, logging
// the command line and showing the child's stderr.
func Output(logger model.Logger, command string, args ...string) ([]byte, error) {
	return output(logger, FlagShowStdoutStderr, command, args...)
}

// RunEx runs the given command using the given config and environment.
func RunEx(config *Config, argv *Argv, envp *Envp) error {
	cmd := cmd(config, argv, envp)
	if config.Flags&FlagShowStdoutStderr != 0 {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if config.Stdout != nil {
		cmd.Stdout = config.Stdout
	}
	if config.Stderr != nil {
		cmd.Stderr = config.Stderr
	}
	return Library.CmdRun(cmd) // allows mocking
}

// ErrNoCommandToExecute means that the command line is empty.
var ErrNoCommandToExecute = errors.New("shellx: no command to execute")

// quotedCommandLine returns a quoted command line.
func quotedCommandLine(command string, args ...string) string {
	v := []string{}
	v = append(v, maybeQuoteArg(command))
	for _, a := range args {
		v = append(v, maybeQuoteArg(a))
	}
	return strings.Join(v, " ")
}

// maybeQuoteArg quotes a command line argument if needed.
func maybeQuoteArg(a string) string {
	if strings.Contains(a, "\"") {
		a = strings.ReplaceAll(a, "\"", "\\\"")
	}
	if strings.Contains(a, " ") {
		a = "\"" + a + "\""
	}
	return a
}

// fsxOpenFile is the function to open a file for reading.
var fsxOpenFile = fsx.OpenFile

// osOpenFile is the generic function to open a file.
var osOpenFile = os.OpenFile

// CopyFile copies [source] to [dest].
func CopyFile(source, dest string, perms fs.FileMode) error {
	sourcefp, err := fsxOpenFile(source)
	if err != nil {
		return err
	}
	defer sourcefp.Close()
	destfp, err := osOpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perms)
	if err != nil {
		return err
	}
	if _, err := io.Copy(destfp, sourcefp); err != nil {
		destfp.Close()
		return err
	}
	return destfp.Close()
}

// CopyTree recursively copies the regular files and the directories
// below [source] into [dest], creating [dest] if needed. Existing
// files in [dest] are overwritten.
func CopyTree(source, dest string) error {
	return filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return CopyFile(path, target, 0644)
	})
}
