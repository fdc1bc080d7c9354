// Package resolver turns command line flags and environment variables
// into the fully resolved [buildmodel.Settings] of a run.
package resolver

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/shlex"
	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/spf13/pflag"
)

// DefaultVersion is the OpenSSL version we build by default.
const DefaultVersion = "1.1.1w"

// Default minimum OS versions.
const (
	DefaultMinIOSSDK     = "12.0"
	DefaultMinTVOSSDK    = "12.0"
	DefaultMinWatchOSSDK = "4.0"
	DefaultMinMacOSXSDK  = "10.15"
)

// Dependencies contains the external collaborators of [Resolve].
type Dependencies interface {
	// SDKVersion returns the version of the given SDK (e.g., iphoneos).
	SDKVersion(sdk string) (string, error)

	// NumCPU returns the number of logical CPUs.
	NumCPU() int

	// LatestInBranch returns the latest release of the given branch.
	LatestInBranch(branch string) (string, error)
}

// Flags contains the raw command line flags.
type Flags struct {
	Version        string
	Branch         string
	Targets        string
	IOSSDK         string
	TVOSSDK        string
	WatchOSSDK     string
	MacOSXSDK      string
	MinIOSSDK      string
	MinTVOSSDK     string
	MinWatchOSSDK  string
	MinMacOSXSDK   string
	Cleanup        bool
	ECNistp        bool
	DisableBitcode bool
	Deprecated     bool
	NoParallel     bool
	Verbose        bool
	VerboseOnError bool
	RepoRoot       string
	ConfigFile     string
}

// AddFlags registers the flags into the given flag set.
func (f *Flags) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Version, "version", "", "OpenSSL version to build (default: "+DefaultVersion+")")
	fs.StringVar(&f.Branch, "branch", "", "build the latest release of the given branch (e.g., 1.1.1)")
	fs.StringVar(&f.Targets, "targets", "", "space-separated list of targets to build")
	fs.StringVar(&f.IOSSDK, "ios-sdk", "", "iOS SDK version (default: autodetect)")
	fs.StringVar(&f.TVOSSDK, "tvos-sdk", "", "tvOS SDK version (default: autodetect)")
	fs.StringVar(&f.WatchOSSDK, "watchos-sdk", "", "watchOS SDK version (default: autodetect)")
	fs.StringVar(&f.MacOSXSDK, "macosx-sdk", "", "macOS SDK version (default: autodetect)")
	fs.StringVar(&f.MinIOSSDK, "min-ios-sdk", DefaultMinIOSSDK, "minimum iOS version")
	fs.StringVar(&f.MinTVOSSDK, "min-tvos-sdk", DefaultMinTVOSSDK, "minimum tvOS version")
	fs.StringVar(&f.MinWatchOSSDK, "min-watchos-sdk", DefaultMinWatchOSSDK, "minimum watchOS version")
	fs.StringVar(&f.MinMacOSXSDK, "min-macosx-sdk", DefaultMinMacOSXSDK, "minimum macOS version for Mac Catalyst")
	fs.BoolVar(&f.Cleanup, "cleanup", false, "remove the outputs of previous runs before building")
	fs.BoolVar(&f.ECNistp, "ec-nistp-64-gcc-128", false, "enable ec_nistp_64_gcc_128 for 64-bit targets")
	fs.BoolVar(&f.DisableBitcode, "disable-bitcode", false, "do not embed bitcode")
	fs.BoolVar(&f.Deprecated, "deprecated", false, "keep the deprecated APIs")
	fs.BoolVar(&f.NoParallel, "noparallel", false, "run make with a single job")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "show the build output")
	fs.BoolVar(&f.VerboseOnError, "verbose-on-error", false, "show the tail of the build log on failure")
	fs.StringVar(&f.RepoRoot, "reporoot", ".", "directory where to write the outputs")
	fs.StringVar(&f.ConfigFile, "config", "", "OPTIONAL YAML file with default flag values")
}

var (
	versionRegexp = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+[a-z]*$`)
	branchRegexp  = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
)

// ValidateVersion returns a [*buildmodel.ConfigurationError] unless
// version looks like MAJOR.MINOR.PATCH with an optional letter suffix.
func ValidateVersion(version string) error {
	if !versionRegexp.MatchString(version) {
		return &buildmodel.ConfigurationError{
			Reason: fmt.Sprintf("invalid version %q: expected MAJOR.MINOR.PATCH[letters]", version),
		}
	}
	return nil
}

// ValidateBranch returns a [*buildmodel.ConfigurationError] unless
// branch looks like MAJOR.MINOR.PATCH.
func ValidateBranch(branch string) error {
	if !branchRegexp.MatchString(branch) {
		return &buildmodel.ConfigurationError{
			Reason: fmt.Sprintf("invalid branch %q: expected MAJOR.MINOR.PATCH", branch),
		}
	}
	return nil
}

// Resolve resolves the given flags. The getenv func reads the CURL_OPTIONS
// and CONFIG_OPTIONS environment variables. Input errors are reported as
// [*buildmodel.ConfigurationError] before using any dependency.
func Resolve(flags *Flags, getenv func(string) string, deps Dependencies) (*buildmodel.Settings, error) {
	if flags.Version != "" && flags.Branch != "" {
		return nil, &buildmodel.ConfigurationError{Reason: "--version and --branch are mutually exclusive"}
	}
	version := DefaultVersion
	if flags.Version != "" {
		if err := ValidateVersion(flags.Version); err != nil {
			return nil, err
		}
		version = flags.Version
	}
	if flags.Branch != "" {
		if err := ValidateBranch(flags.Branch); err != nil {
			return nil, err
		}
	}

	targets, err := parseTargets(flags.Targets)
	if err != nil {
		return nil, err
	}
	if err := checkArchs(targets); err != nil {
		return nil, err
	}
	configOptions, err := SplitEnv(getenv, "CONFIG_OPTIONS")
	if err != nil {
		return nil, err
	}
	curlOptions, err := SplitEnv(getenv, "CURL_OPTIONS")
	if err != nil {
		return nil, err
	}
	repoRoot, err := filepath.Abs(flags.RepoRoot)
	if err != nil {
		return nil, err
	}

	if flags.Branch != "" {
		if version, err = deps.LatestInBranch(flags.Branch); err != nil {
			return nil, err
		}
	}

	if targets, err = bindSDKs(flags, targets, deps); err != nil {
		return nil, err
	}

	settings := &buildmodel.Settings{
		Version:         version,
		Targets:         targets,
		Threads:         threads(flags, deps),
		Verbosity:       verbosity(flags),
		Bitcode:         !flags.DisableBitcode,
		Deprecated:      flags.Deprecated,
		ECNistp64GCC128: flags.ECNistp,
		ConfigOptions:   configOptions,
		CurlOptions:     curlOptions,
		RepoRoot:        repoRoot,
		Cleanup:         flags.Cleanup,
	}
	return settings, nil
}

func parseTargets(value string) ([]*buildmodel.Target, error) {
	names := strings.Fields(value)
	if len(names) <= 0 {
		names = buildmodel.DefaultTargets
	}
	var targets []*buildmodel.Target
	for _, name := range names {
		target, err := buildmodel.ParseTarget(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// checkArchs ensures that each family contains each architecture at most
// once, since lipo cannot merge two slices of the same architecture.
func checkArchs(targets []*buildmodel.Target) error {
	seen := make(map[buildmodel.Family]map[string]string)
	for _, target := range targets {
		family := target.Family()
		if seen[family] == nil {
			seen[family] = make(map[string]string)
		}
		if other, found := seen[family][target.Arch]; found {
			return &buildmodel.ConfigurationError{
				Reason: fmt.Sprintf("%s and %s are both %s %s: lipo cannot merge them",
					other, target.Name, family, target.Arch),
			}
		}
		seen[family][target.Arch] = target.Name
	}
	return nil
}

// SplitEnv splits the value of the given environment variable using shell quoting rules.
func SplitEnv(getenv func(string) string, key string) ([]string, error) {
	value := getenv(key)
	if value == "" {
		return nil, nil
	}
	options, err := shlex.Split(value)
	if err != nil {
		return nil, &buildmodel.ConfigurationError{Reason: fmt.Sprintf("cannot parse %s: %s", key, err.Error())}
	}
	return options, nil
}

// bindSDKs binds each target to its SDK versions. We only query the
// SDKs of the families we're going to build.
func bindSDKs(flags *Flags, targets []*buildmodel.Target, deps Dependencies) ([]*buildmodel.Target, error) {
	sdks := map[buildmodel.Family]string{
		buildmodel.FamilyIOS:      flags.IOSSDK,
		buildmodel.FamilyTVOS:     flags.TVOSSDK,
		buildmodel.FamilyWatchOS:  flags.WatchOSSDK,
		buildmodel.FamilyCatalyst: flags.MacOSXSDK,
	}
	mins := map[buildmodel.Family]string{
		buildmodel.FamilyIOS:      flags.MinIOSSDK,
		buildmodel.FamilyTVOS:     flags.MinTVOSSDK,
		buildmodel.FamilyWatchOS:  flags.MinWatchOSSDK,
		buildmodel.FamilyCatalyst: flags.MinMacOSXSDK,
	}
	var out []*buildmodel.Target
	for _, target := range targets {
		family := target.Family()
		if sdks[family] == "" {
			version, err := deps.SDKVersion(family.SDK())
			if err != nil {
				return nil, fmt.Errorf("cannot get the %s SDK version: %w", family.SDK(), err)
			}
			sdks[family] = version
		}
		out = append(out, target.WithSDK(sdks[family], mins[family]))
	}
	return out, nil
}

func threads(flags *Flags, deps Dependencies) int {
	if flags.NoParallel {
		return 1
	}
	if n := deps.NumCPU(); n > 1 {
		return n
	}
	return 1
}

// verbosity returns the verbosity. --verbose wins over --verbose-on-error.
func verbosity(flags *Flags) buildmodel.Verbosity {
	switch {
	case flags.Verbose:
		return buildmodel.VerbosityVerbose
	case flags.VerboseOnError:
		return buildmodel.VerbosityOnError
	default:
		return buildmodel.VerbosityNormal
	}
}
