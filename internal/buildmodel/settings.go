package buildmodel

//
// Resolved settings
//

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Verbosity controls how much of the build output we show.
type Verbosity int

const (
	// VerbosityNormal shows a progress indicator and writes the build output to log files.
	VerbosityNormal = Verbosity(iota)

	// VerbosityVerbose additionally shows the build output.
	VerbosityVerbose

	// VerbosityOnError is like VerbosityNormal but dumps the tail of
	// the log file when a build phase fails.
	VerbosityOnError
)

// String implements fmt.Stringer.
func (v Verbosity) String() string {
	switch v {
	case VerbosityVerbose:
		return "verbose"
	case VerbosityOnError:
		return "verbose-on-error"
	default:
		return "normal"
	}
}

// Settings contains the fully resolved settings of a run.
type Settings struct {
	// Version is the OpenSSL version to build (e.g., 1.1.1w).
	Version string

	// Targets contains the targets to build in build order.
	Targets []*Target

	// Threads is the number of make jobs.
	Threads int

	// Verbosity is the verbosity level.
	Verbosity Verbosity

	// Bitcode indicates whether to embed bitcode.
	Bitcode bool

	// Deprecated indicates whether to keep deprecated APIs.
	Deprecated bool

	// ECNistp64GCC128 enables enable-ec_nistp_64_gcc_128 for 64-bit targets.
	ECNistp64GCC128 bool

	// ConfigOptions contains extra options for Configure.
	ConfigOptions []string

	// CurlOptions contains extra options for curl.
	CurlOptions []string

	// RepoRoot is the directory where we write the output.
	RepoRoot string

	// Cleanup indicates whether to remove previous outputs before building.
	Cleanup bool
}

// BinDir returns the directory containing the per-target installs and logs.
func (s *Settings) BinDir() string {
	return filepath.Join(s.RepoRoot, "bin")
}

// SrcDir returns the directory containing the staged sources.
func (s *Settings) SrcDir() string {
	return filepath.Join(s.RepoRoot, "src")
}

// LibDir returns the directory containing the merged libraries.
func (s *Settings) LibDir() string {
	return filepath.Join(s.RepoRoot, "lib")
}

// IncludeDir returns the include/openssl output directory.
func (s *Settings) IncludeDir() string {
	return filepath.Join(s.RepoRoot, "include", "openssl")
}

// ConfHeaderBase returns the basename without extension of the header
// that contains the platform-specific configuration. OpenSSL 3 moved
// it from opensslconf.h to configuration.h.
func ConfHeaderBase(version string) string {
	major, _, _ := strings.Cut(version, ".")
	if n, err := strconv.Atoi(major); err == nil && n >= 3 {
		return "configuration"
	}
	return "opensslconf"
}
