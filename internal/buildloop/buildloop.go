// Package buildloop builds OpenSSL once per target.
//
// Each target goes through the following states:
//
//	Staging -> Configuring -> Compiling -> Finalizing -> Done
//
// where Configuring and Compiling may also lead to Failed. Any failure
// aborts the whole loop and leaves the target's staged sources behind
// for inspection. On success, the staged sources are removed.
package buildloop

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/ooni/build-libssl/internal/fsx"
	"github.com/ooni/build-libssl/internal/model"
	"github.com/ooni/build-libssl/internal/runtimex"
	"github.com/ooni/build-libssl/internal/shellx"
)

// Dependencies contains the dependencies of the build loop.
type Dependencies interface {
	// DeveloperDir returns the active Xcode developer directory.
	DeveloperDir() (string, error)
}

// State is the state of a target in the build loop.
type State int

const (
	// StateStaging means we're extracting the sources.
	StateStaging = State(iota)

	// StateConfiguring means we're running ./Configure.
	StateConfiguring

	// StateCompiling means we're running make.
	StateCompiling

	// StateFinalizing means we're collecting the artifacts.
	StateFinalizing

	// StateDone means we successfully built the target.
	StateDone

	// StateFailed means that configure or make failed.
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateStaging:
		return "staging"
	case StateConfiguring:
		return "configuring"
	case StateCompiling:
		return "compiling"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TailLines is the number of log lines we show on failure
// when using [buildmodel.VerbosityOnError].
const TailLines = 500

// DefaultTickInterval is the default interval between progress updates.
const DefaultTickInterval = 250 * time.Millisecond

// Builder runs the build loop. The zero value is invalid; please,
// make sure you initialize all the fields marked as MANDATORY.
type Builder struct {
	// Deps contains the MANDATORY dependencies.
	Deps Dependencies

	// Logger is the MANDATORY logger.
	Logger model.Logger

	// OnTransition is an OPTIONAL hook called on each state transition.
	OnTransition func(target *buildmodel.Target, state State)

	// ProgressWriter is the OPTIONAL writer for the progress indicator,
	// which defaults to os.Stderr.
	ProgressWriter io.Writer

	// Settings contains the MANDATORY settings.
	Settings *buildmodel.Settings

	// Stderr is the OPTIONAL writer where we dump the tail of the log
	// on failure, which defaults to os.Stderr.
	Stderr io.Writer

	// Stdout is the OPTIONAL writer where we copy the build output
	// in verbose mode, which defaults to os.Stdout.
	Stdout io.Writer

	// TickInterval is the OPTIONAL progress interval, which
	// defaults to [DefaultTickInterval].
	TickInterval time.Duration
}

// Run builds all the targets in order using the given source archive.
func (b *Builder) Run(archive string) (*buildmodel.BuildLoopResult, error) {
	runtimex.Assert(b.Settings != nil, "nil Settings")
	runtimex.Assert(len(b.Settings.Targets) > 0, "no targets")

	if b.Settings.Cleanup {
		if err := b.Cleanup(); err != nil {
			return nil, err
		}
	}
	for _, dir := range []string{b.Settings.BinDir(), b.Settings.SrcDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	developer, err := b.Deps.DeveloperDir()
	if err != nil {
		return nil, fmt.Errorf("cannot find the developer directory: %w", err)
	}

	result := buildmodel.NewBuildLoopResult()
	for _, target := range b.Settings.Targets {
		br, header, err := b.buildTarget(archive, developer, target)
		if err != nil {
			return nil, err
		}
		result.Add(br, header)
	}
	return result, nil
}

// Cleanup removes the outputs of previous runs.
func (b *Builder) Cleanup() error {
	s := b.Settings
	for _, dir := range []string{s.BinDir(), s.LibDir(), s.SrcDir(), s.IncludeDir()} {
		b.Logger.Infof("+ rm -rf %s", dir)
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}

// targetPaths contains the paths used by a target.
type targetPaths struct {
	// logFile is bin/<dirname>.log.
	logFile string

	// sourceDir is src/<dirname>.
	sourceDir string

	// targetDir is bin/<dirname>.sdk, the install prefix.
	targetDir string
}

func (b *Builder) paths(target *buildmodel.Target) *targetPaths {
	dirname := target.Dirname()
	return &targetPaths{
		logFile:   filepath.Join(b.Settings.BinDir(), dirname+".log"),
		sourceDir: filepath.Join(b.Settings.SrcDir(), dirname),
		targetDir: filepath.Join(b.Settings.BinDir(), dirname+".sdk"),
	}
}

func (b *Builder) transition(target *buildmodel.Target, state State) {
	b.Logger.Debugf("%s: %s", target.Name, state)
	if b.OnTransition != nil {
		b.OnTransition(target, state)
	}
}

// buildTarget builds a single target.
func (b *Builder) buildTarget(archive, developer string,
	target *buildmodel.Target) (*buildmodel.BuildResult, buildmodel.ConfHeader, error) {
	b.Logger.Infof("building %s for %s %s (%s)", b.Settings.Version, target.Platform, target.SDKVersion, target.Arch)
	paths := b.paths(target)

	b.transition(target, StateStaging)
	if err := b.stage(archive, paths); err != nil {
		return nil, buildmodel.ConfHeader{}, err
	}

	logfp, err := os.Create(paths.logFile)
	if err != nil {
		return nil, buildmodel.ConfHeader{}, err
	}
	defer logfp.Close()

	envp := b.environ(developer, target)

	b.transition(target, StateConfiguring)
	configure := runtimex.Try1(shellx.NewArgv("./Configure", b.ConfigureOptions(target, paths.targetDir)...))
	if err := b.runPhase(target, "Configure", configure, envp, paths, logfp); err != nil {
		b.transition(target, StateFailed)
		return nil, buildmodel.ConfHeader{}, err
	}

	b.transition(target, StateCompiling)
	compile, err := shellx.NewArgv("make", "-j", strconv.Itoa(b.Settings.Threads))
	if err != nil {
		return nil, buildmodel.ConfHeader{}, err
	}
	install, err := shellx.NewArgv("make", "install_dev")
	if err != nil {
		return nil, buildmodel.ConfHeader{}, err
	}
	for _, argv := range []*shellx.Argv{compile, install} {
		if err := b.runPhase(target, "Make", argv, envp, paths, logfp); err != nil {
			b.transition(target, StateFailed)
			return nil, buildmodel.ConfHeader{}, err
		}
	}

	b.transition(target, StateFinalizing)
	br, header, err := b.finalize(target, paths)
	if err != nil {
		return nil, buildmodel.ConfHeader{}, err
	}
	b.transition(target, StateDone)
	return br, header, nil
}

// stage creates fresh work directories and extracts the sources.
func (b *Builder) stage(archive string, paths *targetPaths) error {
	for _, dir := range []string{paths.targetDir, paths.sourceDir} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	argv, err := shellx.NewArgv("tar", "-xzf", archive, "-C", paths.sourceDir, "--strip-components", "1")
	if err != nil {
		return err
	}
	if err := shellx.RunEx(&shellx.Config{Logger: b.Logger}, argv, &shellx.Envp{}); err != nil {
		return fmt.Errorf("cannot extract %s: %w", archive, err)
	}
	return nil
}

// environ returns the environment variables used by the OpenSSL
// Configure targets for Apple cross compilation.
func (b *Builder) environ(developer string, target *buildmodel.Target) *shellx.Envp {
	envp := &shellx.Envp{}
	platform := target.Platform.String()
	envp.Append("CROSS_TOP", filepath.Join(developer, "Platforms", platform+".platform", "Developer"))
	envp.Append("CROSS_SDK", platform+target.SDKVersion+".sdk")
	if configDir := filepath.Join(b.Settings.RepoRoot, "config"); fsx.DirectoryExists(configDir) {
		envp.Append("OPENSSL_LOCAL_CONFIG_DIR", configDir)
	}
	return envp
}

// ConfigureOptions returns the options for ./Configure.
func (b *Builder) ConfigureOptions(target *buildmodel.Target, targetDir string) []string {
	s := b.Settings
	options := []string{
		target.Name,
		"--prefix=" + targetDir,
		"--openssldir=" + targetDir,
	}
	if target.MinSDKVersion != "" {
		// tricky: flag and version must be concatenated
		options = append(options, target.Platform.MinVersionFlag()+target.MinSDKVersion)
	}
	// Mac Catalyst does not support bitcode.
	if s.Bitcode && target.Platform != buildmodel.MacOSX {
		options = append(options, "-fembed-bitcode")
	}
	if !s.Deprecated {
		options = append(options, "no-deprecated")
	}
	if s.ECNistp64GCC128 && target.Is64Bit() {
		options = append(options, "enable-ec_nistp_64_gcc_128")
	}
	options = append(options, s.ConfigOptions...)
	return append(options, "no-tests")
}

// runPhase runs a configure or make command for the given target.
func (b *Builder) runPhase(target *buildmodel.Target, phase string, argv *shellx.Argv,
	envp *shellx.Envp, paths *targetPaths, logfp io.Writer) error {
	config := &shellx.Config{
		Dir:    paths.sourceDir,
		Logger: b.Logger,
	}

	var err error
	switch b.Settings.Verbosity {
	case buildmodel.VerbosityVerbose:
		w := io.MultiWriter(b.stdout(), logfp)
		config.Stdout, config.Stderr = w, w
		err = shellx.RunEx(config, argv, envp)
	default:
		config.Stdout, config.Stderr = logfp, logfp
		err = b.waitWithProgress(fmt.Sprintf("%s %s", phase, target.Name), func() error {
			return shellx.RunEx(config, argv, envp)
		})
	}
	if err == nil {
		return nil
	}

	if b.Settings.Verbosity == buildmodel.VerbosityOnError {
		b.dumpLogTail(paths.logFile)
	}
	return &buildmodel.BuildPhaseError{
		Target:  target.Name,
		Phase:   phase,
		LogFile: paths.logFile,
		Err:     err,
	}
}

// finalize removes the staged sources and collects the artifacts.
func (b *Builder) finalize(target *buildmodel.Target,
	paths *targetPaths) (*buildmodel.BuildResult, buildmodel.ConfHeader, error) {
	b.Logger.Infof("+ rm -rf %s", paths.sourceDir)
	if err := os.RemoveAll(paths.sourceDir); err != nil {
		return nil, buildmodel.ConfHeader{}, err
	}

	base := buildmodel.ConfHeaderBase(b.Settings.Version)
	includeDir := filepath.Join(paths.targetDir, "include", "openssl")
	header := buildmodel.ConfHeader{
		Name:   fmt.Sprintf("%s_%s.h", base, target.HeaderSuffix()),
		Suffix: target.HeaderSuffix(),
	}
	confHeader := filepath.Join(b.Settings.BinDir(), header.Name)
	if err := shellx.CopyFile(filepath.Join(includeDir, base+".h"), confHeader, 0644); err != nil {
		return nil, buildmodel.ConfHeader{}, fmt.Errorf("cannot copy the configuration header: %w", err)
	}

	br := &buildmodel.BuildResult{
		Target:     target,
		LibSSL:     filepath.Join(paths.targetDir, "lib", "libssl.a"),
		LibCrypto:  filepath.Join(paths.targetDir, "lib", "libcrypto.a"),
		ConfHeader: confHeader,
		IncludeDir: includeDir,
		LogFile:    paths.logFile,
	}
	return br, header, nil
}

func (b *Builder) stdout() io.Writer {
	if b.Stdout != nil {
		return b.Stdout
	}
	return os.Stdout
}

func (b *Builder) stderr() io.Writer {
	if b.Stderr != nil {
		return b.Stderr
	}
	return os.Stderr
}
