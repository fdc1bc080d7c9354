// Package confheader installs the OpenSSL headers and, when we built
// more than one target, synthesizes a dispatcher configuration header
// that includes the right per-target header at compile time.
package confheader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/ooni/build-libssl/internal/model"
	"github.com/ooni/build-libssl/internal/runtimex"
	"github.com/ooni/build-libssl/internal/shellx"
)

// Conditions maps a header suffix to the preprocessor condition
// selecting the corresponding target.
var Conditions = map[string]string{
	"ios_x86_64":        "TARGET_OS_IOS && TARGET_OS_SIMULATOR && TARGET_CPU_X86_64",
	"ios_i386":          "TARGET_OS_IOS && TARGET_OS_SIMULATOR && TARGET_CPU_X86",
	"ios_sim_arm64":     "TARGET_OS_IOS && TARGET_OS_SIMULATOR && TARGET_CPU_ARM64",
	"ios_arm64":         "TARGET_OS_IOS && TARGET_OS_EMBEDDED && TARGET_CPU_ARM64",
	"ios_arm64e":        "TARGET_OS_IOS && TARGET_OS_EMBEDDED && TARGET_CPU_ARM64E",
	"ios_armv7s":        "TARGET_OS_IOS && TARGET_OS_EMBEDDED && TARGET_CPU_ARM && defined(__ARM_ARCH_7S__)",
	"ios_armv7":         "TARGET_OS_IOS && TARGET_OS_EMBEDDED && TARGET_CPU_ARM && !defined(__ARM_ARCH_7S__)",
	"catalyst_x86_64":   "TARGET_OS_MACCATALYST && TARGET_CPU_X86_64",
	"catalyst_arm64":    "TARGET_OS_MACCATALYST && TARGET_CPU_ARM64",
	"tvos_x86_64":       "TARGET_OS_TV && TARGET_OS_SIMULATOR && TARGET_CPU_X86_64",
	"tvos_sim_arm64":    "TARGET_OS_TV && TARGET_OS_SIMULATOR && TARGET_CPU_ARM64",
	"tvos_arm64":        "TARGET_OS_TV && TARGET_OS_EMBEDDED && TARGET_CPU_ARM64",
	"watchos_armv7k":    "TARGET_OS_WATCH && TARGET_OS_EMBEDDED && TARGET_CPU_ARMV7K",
	"watchos_arm64_32":  "TARGET_OS_WATCH && TARGET_OS_EMBEDDED && TARGET_CPU_ARM64_32",
	"watchos_i386":      "TARGET_OS_WATCH && TARGET_OS_SIMULATOR && TARGET_CPU_X86",
	"watchos_x86_64":    "TARGET_OS_WATCH && TARGET_OS_SIMULATOR && TARGET_CPU_X86_64",
	"watchos_sim_arm64": "TARGET_OS_WATCH && TARGET_OS_SIMULATOR && TARGET_CPU_ARM64",
}

// Condition returns the condition for the given suffix. Unknown
// suffixes map to an always-false condition.
func Condition(suffix string) string {
	if cond, found := Conditions[suffix]; found {
		return cond
	}
	return "0"
}

// ErrorMessage is the message of the final #error directive.
const ErrorMessage = "Unable to determine target or target not included in OpenSSL build"

// Render returns the dispatcher header for the given headers, which
// are tested in order.
func Render(headers []buildmodel.ConfHeader, base string) string {
	runtimex.Assert(len(headers) > 0, "no headers")
	var sb strings.Builder
	fmt.Fprintf(&sb, "/* %s.h */\n", base)
	sb.WriteString("/* Generated by build-libssl: do not edit. */\n")
	sb.WriteString("#include <TargetConditionals.h>\n")
	for idx, header := range headers {
		directive := "#elif"
		if idx == 0 {
			directive = "#if"
		}
		fmt.Fprintf(&sb, "%s %s\n", directive, Condition(header.Suffix))
		fmt.Fprintf(&sb, "# include <openssl/%s>\n", header.Name)
	}
	sb.WriteString("#else\n")
	fmt.Fprintf(&sb, "# error %s\n", ErrorMessage)
	sb.WriteString("#endif\n")
	return sb.String()
}

// Unifier installs the headers. The zero value is invalid; please, make
// sure you initialize all the fields marked as MANDATORY.
type Unifier struct {
	// Logger is the MANDATORY logger.
	Logger model.Logger

	// Settings contains the MANDATORY settings.
	Settings *buildmodel.Settings
}

// Unify copies the headers of the first target into include/openssl and,
// with more than one target, replaces the configuration header with
// the dispatcher returned by [Render].
func (u *Unifier) Unify(result *buildmodel.BuildLoopResult) error {
	runtimex.Assert(result != nil, "nil result")
	destdir := u.Settings.IncludeDir()
	u.Logger.Infof("+ cp -R %s/ %s/", result.IncludeDir, destdir)
	if err := shellx.CopyTree(result.IncludeDir, destdir); err != nil {
		return err
	}
	if len(result.Headers) <= 1 {
		return nil
	}

	base := buildmodel.ConfHeaderBase(u.Settings.Version)
	for _, header := range result.Headers {
		source := filepath.Join(u.Settings.BinDir(), header.Name)
		dest := filepath.Join(destdir, header.Name)
		u.Logger.Infof("+ cp %s %s", source, dest)
		if err := shellx.CopyFile(source, dest, 0644); err != nil {
			return err
		}
	}

	dispatcher := filepath.Join(destdir, base+".h")
	u.Logger.Infof("writing %s", dispatcher)
	return os.WriteFile(dispatcher, []byte(Render(result.Headers, base)), 0644)
}
