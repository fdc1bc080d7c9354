package aggregate

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/ooni/build-libssl/internal/buildtooltest"
	"github.com/ooni/build-libssl/internal/model"
	"github.com/ooni/build-libssl/internal/shellx/shellxtesting"
	"golang.org/x/sys/execabs"
)

func newResult(t *testing.T, names ...string) *buildmodel.BuildLoopResult {
	result := buildmodel.NewBuildLoopResult()
	for _, name := range names {
		target, err := buildmodel.ParseTarget(name)
		if err != nil {
			t.Fatal(err)
		}
		target = target.WithSDK("17.0", "12.0")
		prefix := filepath.Join("/r/bin", target.Dirname()+".sdk")
		br := &buildmodel.BuildResult{
			Target:    target,
			LibSSL:    filepath.Join(prefix, "lib", "libssl.a"),
			LibCrypto: filepath.Join(prefix, "lib", "libcrypto.a"),
		}
		result.Add(br, buildmodel.ConfHeader{Suffix: target.HeaderSuffix()})
	}
	return result
}

func TestMerge(t *testing.T) {
	t.Run("we merge device and simulator and skip empty families", func(t *testing.T) {
		root := t.TempDir()
		// note: the simulator comes first but device members are listed first
		result := newResult(t, "ios-sim-cross-x86_64", "ios64-cross-arm64", "mac-catalyst-arm64")
		cc := &buildtooltest.SimpleCommandCollector{}
		m := &Merger{Root: root, Logger: model.DiscardLogger}
		var (
			outputs []Output
			err     error
		)
		shellxtesting.WithCustomLibrary(cc, func() {
			outputs, err = m.Merge(result)
		})
		if err != nil {
			t.Fatal(err)
		}

		expect := []buildtooltest.ExecExpectations{{
			Argv: []string{
				"lipo", "-create",
				"/r/bin/iPhoneOS17.0-arm64.sdk/lib/libssl.a",
				"/r/bin/iPhoneSimulator17.0-x86_64.sdk/lib/libssl.a",
				"-output", filepath.Join(root, "lib", "iOS", "libssl.a"),
			},
		}, {
			Argv: []string{
				"lipo", "-create",
				"/r/bin/iPhoneOS17.0-arm64.sdk/lib/libcrypto.a",
				"/r/bin/iPhoneSimulator17.0-x86_64.sdk/lib/libcrypto.a",
				"-output", filepath.Join(root, "lib", "iOS", "libcrypto.a"),
			},
		}, {
			Argv: []string{
				"lipo", "-create",
				"/r/bin/MacOSX17.0-arm64.sdk/lib/libssl.a",
				"-output", filepath.Join(root, "lib", "Catalyst", "libssl.a"),
			},
		}, {
			Argv: []string{
				"lipo", "-create",
				"/r/bin/MacOSX17.0-arm64.sdk/lib/libcrypto.a",
				"-output", filepath.Join(root, "lib", "Catalyst", "libcrypto.a"),
			},
		}}
		if err := buildtooltest.CheckManyCommands(cc.Commands, expect); err != nil {
			t.Fatal(err)
		}

		expectOutputs := []Output{{
			Family:    buildmodel.FamilyIOS,
			LibSSL:    filepath.Join(root, "lib", "iOS", "libssl.a"),
			LibCrypto: filepath.Join(root, "lib", "iOS", "libcrypto.a"),
		}, {
			Family:    buildmodel.FamilyCatalyst,
			LibSSL:    filepath.Join(root, "lib", "Catalyst", "libssl.a"),
			LibCrypto: filepath.Join(root, "lib", "Catalyst", "libcrypto.a"),
		}}
		if diff := cmp.Diff(expectOutputs, outputs); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("with no results we don't run anything", func(t *testing.T) {
		cc := &buildtooltest.SimpleCommandCollector{}
		m := &Merger{Root: t.TempDir(), Logger: model.DiscardLogger}
		var (
			outputs []Output
			err     error
		)
		shellxtesting.WithCustomLibrary(cc, func() {
			outputs, err = m.Merge(buildmodel.NewBuildLoopResult())
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(outputs) != 0 || len(cc.Commands) != 0 {
			t.Fatal("expected nothing to happen")
		}
	})

	t.Run("when lipo fails", func(t *testing.T) {
		expected := errors.New("mocked error")
		cc := &buildtooltest.SimpleCommandCollector{
			OnCommand: func(c *execabs.Cmd) ([]byte, error) {
				return nil, expected
			},
		}
		m := &Merger{Root: t.TempDir(), Logger: model.DiscardLogger}
		var err error
		shellxtesting.WithCustomLibrary(cc, func() {
			_, err = m.Merge(newResult(t, "tvos64-cross-arm64"))
		})
		if !errors.Is(err, expected) {
			t.Fatal("unexpected error", err)
		}
		if len(cc.Commands) != 1 {
			t.Fatal("expected to stop after the first failure")
		}
	})
}
