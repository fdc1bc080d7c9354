package buildmodel

//
// Build targets
//

import (
	"fmt"
	"regexp"
	"strings"
)

// Target is a single (platform, architecture) pair to build.
//
// The zero value is invalid; use [ParseTarget] to obtain a Target
// and [Target.WithSDK] to bind it to SDK versions.
type Target struct {
	// Name is the OpenSSL Configure target (e.g., ios64-cross-arm64).
	Name string

	// Platform is the Apple SDK platform.
	Platform Platform

	// Arch is the architecture (e.g., arm64).
	Arch string

	// SDKVersion is the version of the SDK we build against.
	SDKVersion string

	// MinSDKVersion is the minimum OS version we target.
	MinSDKVersion string
}

// targetPrefixes maps Configure target prefixes to platforms. Order
// matters, since we return the first prefix that matches.
var targetPrefixes = []struct {
	prefix   string
	platform Platform
}{
	{"ios-sim-cross-", IPhoneSimulator},
	{"ios64-cross-", IPhoneOS},
	{"ios-cross-", IPhoneOS},
	{"tvos-sim-cross-", AppleTVSimulator},
	{"tvos64-cross-", AppleTVOS},
	{"watchos-sim-cross-", WatchSimulator},
	{"watchos-cross-", WatchOS},
	{"mac-catalyst-", MacOSX},
}

var archRegexp = regexp.MustCompile(`^[a-z0-9_]+$`)

// ParseTarget parses the name of a Configure target. It returns
// a [*ConfigurationError] if we don't know the target's platform.
func ParseTarget(name string) (*Target, error) {
	for _, entry := range targetPrefixes {
		arch, found := strings.CutPrefix(name, entry.prefix)
		if !found {
			continue
		}
		if !archRegexp.MatchString(arch) {
			break
		}
		t := &Target{
			Name:     name,
			Platform: entry.platform,
			Arch:     arch,
		}
		return t, nil
	}
	return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown target: %s", name)}
}

// WithSDK returns a copy of the target bound to the given SDK versions.
func (t *Target) WithSDK(sdkVersion, minSDKVersion string) *Target {
	out := *t
	out.SDKVersion = sdkVersion
	out.MinSDKVersion = minSDKVersion
	return &out
}

// Family returns the target's platform family.
func (t *Target) Family() Family {
	return t.Platform.Family()
}

// Dirname returns the basename used for the target's work directories
// and log file (e.g., iPhoneOS17.0-arm64).
func (t *Target) Dirname() string {
	return fmt.Sprintf("%s%s-%s", t.Platform, t.SDKVersion, t.Arch)
}

// HeaderSuffix returns the suffix identifying this target's configuration
// header (e.g., ios_x86_64). Simulators running on arm64 get a sim_ infix
// so that they do not clash with the corresponding device.
func (t *Target) HeaderSuffix() string {
	prefix := t.Family().HeaderPrefix()
	if t.Platform.IsSimulator() && strings.HasPrefix(t.Arch, "arm64") {
		return prefix + "_sim_" + t.Arch
	}
	return prefix + "_" + t.Arch
}

// Is64Bit returns whether the target's ABI uses 64-bit pointers. Note
// that arm64_32 uses 32-bit pointers and has no __int128.
func (t *Target) Is64Bit() bool {
	switch t.Arch {
	case "x86_64", "arm64", "arm64e":
		return true
	default:
		return false
	}
}

// AllTargets contains all the targets we know how to build.
var AllTargets = []string{
	"ios-sim-cross-x86_64",
	"ios-sim-cross-arm64",
	"ios-sim-cross-i386",
	"ios64-cross-arm64",
	"ios64-cross-arm64e",
	"ios-cross-armv7s",
	"ios-cross-armv7",
	"tvos-sim-cross-x86_64",
	"tvos-sim-cross-arm64",
	"tvos64-cross-arm64",
	"watchos-sim-cross-x86_64",
	"watchos-sim-cross-arm64",
	"watchos-sim-cross-i386",
	"watchos-cross-armv7k",
	"watchos-cross-arm64_32",
	"mac-catalyst-x86_64",
	"mac-catalyst-arm64",
}

// DefaultTargets contains the targets we build when the user does
// not ask for specific targets. It is a subset of [AllTargets].
//
// The iOS simulator only gets x86_64 because lipo cannot put the device
// and simulator arm64 slices into the same fat archive.
var DefaultTargets = []string{
	"ios-sim-cross-x86_64",
	"ios64-cross-arm64",
	"tvos-sim-cross-x86_64",
	"tvos64-cross-arm64",
	"mac-catalyst-x86_64",
	"mac-catalyst-arm64",
}
