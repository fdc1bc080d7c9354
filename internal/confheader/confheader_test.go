package confheader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/ooni/build-libssl/internal/model"
)

func TestRender(t *testing.T) {
	t.Run("with two headers", func(t *testing.T) {
		headers := []buildmodel.ConfHeader{
			{Name: "opensslconf_ios_x86_64.h", Suffix: "ios_x86_64"},
			{Name: "opensslconf_ios_arm64.h", Suffix: "ios_arm64"},
		}
		got := Render(headers, "opensslconf")
		expect := strings.Join([]string{
			"/* opensslconf.h */",
			"/* Generated by build-libssl: do not edit. */",
			"#include <TargetConditionals.h>",
			"#if TARGET_OS_IOS && TARGET_OS_SIMULATOR && TARGET_CPU_X86_64",
			"# include <openssl/opensslconf_ios_x86_64.h>",
			"#elif TARGET_OS_IOS && TARGET_OS_EMBEDDED && TARGET_CPU_ARM64",
			"# include <openssl/opensslconf_ios_arm64.h>",
			"#else",
			"# error Unable to determine target or target not included in OpenSSL build",
			"#endif",
			"",
		}, "\n")
		if diff := cmp.Diff(expect, got); diff != "" {
			t.Fatal(diff)
		}
		for directive, count := range map[string]int{"#if ": 1, "#elif ": 1, "#else\n": 1, "# error ": 1} {
			if n := strings.Count(got, directive); n != count {
				t.Fatalf("expected %d %q, got %d", count, directive, n)
			}
		}
	})

	t.Run("unknown suffixes are never selected", func(t *testing.T) {
		headers := []buildmodel.ConfHeader{
			{Name: "configuration_catalyst_arm64.h", Suffix: "catalyst_arm64"},
			{Name: "configuration_xros_arm64.h", Suffix: "xros_arm64"},
		}
		got := Render(headers, "configuration")
		if !strings.Contains(got, "#elif 0\n# include <openssl/configuration_xros_arm64.h>\n") {
			t.Fatal("unexpected output", got)
		}
		if !strings.HasPrefix(got, "/* configuration.h */\n") {
			t.Fatal("unexpected prefix", got)
		}
	})
}

func TestConditions(t *testing.T) {
	for _, name := range buildmodel.AllTargets {
		target, err := buildmodel.ParseTarget(name)
		if err != nil {
			t.Fatal(err)
		}
		if Condition(target.HeaderSuffix()) == "0" {
			t.Fatal("missing condition for", target.HeaderSuffix())
		}
	}
}

// setup creates the state left behind by the build loop.
func setup(t *testing.T, suffixes ...string) (*buildmodel.Settings, *buildmodel.BuildLoopResult) {
	s := &buildmodel.Settings{Version: "1.1.1w", RepoRoot: t.TempDir()}
	result := buildmodel.NewBuildLoopResult()
	result.IncludeDir = filepath.Join(s.BinDir(), "first.sdk", "include", "openssl")
	if err := os.MkdirAll(result.IncludeDir, 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(result.IncludeDir, "ssl.h"):          "ssl\n",
		filepath.Join(result.IncludeDir, "opensslconf.h"): "first\n",
	}
	for _, suffix := range suffixes {
		header := buildmodel.ConfHeader{Name: "opensslconf_" + suffix + ".h", Suffix: suffix}
		result.Headers = append(result.Headers, header)
		files[filepath.Join(s.BinDir(), header.Name)] = suffix + "\n"
	}
	for name, content := range files {
		if err := os.WriteFile(name, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return s, result
}

func readFile(t *testing.T, name string) string {
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestUnify(t *testing.T) {
	t.Run("with a single header we leave it untouched", func(t *testing.T) {
		s, result := setup(t, "ios_arm64")
		u := &Unifier{Logger: model.DiscardLogger, Settings: s}
		if err := u.Unify(result); err != nil {
			t.Fatal(err)
		}
		if got := readFile(t, filepath.Join(s.IncludeDir(), "opensslconf.h")); got != "first\n" {
			t.Fatal("unexpected header", got)
		}
		if got := readFile(t, filepath.Join(s.IncludeDir(), "ssl.h")); got != "ssl\n" {
			t.Fatal("unexpected header", got)
		}
		if _, err := os.Stat(filepath.Join(s.IncludeDir(), "opensslconf_ios_arm64.h")); err == nil {
			t.Fatal("did not expect per-target headers")
		}
	})

	t.Run("with many headers we write the dispatcher", func(t *testing.T) {
		s, result := setup(t, "ios_x86_64", "ios_arm64")
		u := &Unifier{Logger: model.DiscardLogger, Settings: s}
		if err := u.Unify(result); err != nil {
			t.Fatal(err)
		}
		got := readFile(t, filepath.Join(s.IncludeDir(), "opensslconf.h"))
		if diff := cmp.Diff(Render(result.Headers, "opensslconf"), got); diff != "" {
			t.Fatal(diff)
		}
		for _, suffix := range []string{"ios_x86_64", "ios_arm64"} {
			name := filepath.Join(s.IncludeDir(), "opensslconf_"+suffix+".h")
			if got := readFile(t, name); got != suffix+"\n" {
				t.Fatal("unexpected header", got)
			}
		}
	})

	t.Run("when the include dir is missing", func(t *testing.T) {
		s, result := setup(t, "ios_arm64")
		result.IncludeDir = filepath.Join(s.RepoRoot, "nonexistent")
		u := &Unifier{Logger: model.DiscardLogger, Settings: s}
		if err := u.Unify(result); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("when a per-target header is missing", func(t *testing.T) {
		s, result := setup(t, "ios_x86_64", "ios_arm64")
		if err := os.Remove(filepath.Join(s.BinDir(), "opensslconf_ios_arm64.h")); err != nil {
			t.Fatal(err)
		}
		u := &Unifier{Logger: model.DiscardLogger, Settings: s}
		if err := u.Unify(result); err == nil {
			t.Fatal("expected an error")
		}
	})
}
