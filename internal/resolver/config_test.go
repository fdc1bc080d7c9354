package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/ooni/build-libssl/internal/model/mocks"
	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, content string) string {
	filename := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func newFlagSet(args ...string) (*pflag.FlagSet, *Flags) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := &Flags{}
	flags.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		panic(err)
	}
	return fs, flags
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("command line flags win over the file", func(t *testing.T) {
		filename := writeConfig(t, `
version: 3.0.12
ios-sdk: 17.0
disable-bitcode: true
targets:
  - ios64-cross-arm64
  - mac-catalyst-arm64
nonexistent: 1
`)
		var warnings int
		logger := &mocks.Logger{
			MockDebugf: func(format string, v ...any) {},
			MockWarnf: func(format string, v ...any) {
				warnings++
			},
		}
		fs, flags := newFlagSet("--version=1.1.1w")
		if err := LoadConfigFile(fs, filename, logger); err != nil {
			t.Fatal(err)
		}
		if flags.Version != "1.1.1w" {
			t.Fatal("unexpected version", flags.Version)
		}
		if flags.IOSSDK != "17.0" {
			t.Fatal("unexpected ios-sdk", flags.IOSSDK)
		}
		if !flags.DisableBitcode {
			t.Fatal("expected bitcode to be disabled")
		}
		if flags.Targets != "ios64-cross-arm64 mac-catalyst-arm64" {
			t.Fatal("unexpected targets", flags.Targets)
		}
		if warnings != 1 {
			t.Fatal("expected one warning", warnings)
		}
	})

	t.Run("with an invalid value", func(t *testing.T) {
		filename := writeConfig(t, "cleanup: maybe\n")
		fs, _ := newFlagSet()
		err := LoadConfigFile(fs, filename, &mocks.Logger{})
		var cerr *buildmodel.ConfigurationError
		if !errors.As(err, &cerr) {
			t.Fatal("expected a ConfigurationError, got", err)
		}
	})

	t.Run("with invalid YAML", func(t *testing.T) {
		filename := writeConfig(t, "- just\n- a list\n")
		fs, _ := newFlagSet()
		err := LoadConfigFile(fs, filename, &mocks.Logger{})
		var cerr *buildmodel.ConfigurationError
		if !errors.As(err, &cerr) {
			t.Fatal("expected a ConfigurationError, got", err)
		}
	})

	t.Run("with a missing file", func(t *testing.T) {
		fs, _ := newFlagSet()
		err := LoadConfigFile(fs, filepath.Join(t.TempDir(), "x.yaml"), &mocks.Logger{})
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatal("unexpected error", err)
		}
	})
}
