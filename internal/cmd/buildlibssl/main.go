// Command build-libssl builds static OpenSSL libraries for Apple platforms.
//
// Run it from the repository root:
//
//	go run ./internal/cmd/buildlibssl --targets="ios64-cross-arm64 ios-sim-cross-x86_64"
//
// The merged libraries end up in lib/<Family>/ and the headers
// in include/openssl/.
package main

//
// Main
//

import (
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/mitchellh/go-wordwrap"
	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/ooni/build-libssl/internal/logx"
	"github.com/ooni/build-libssl/internal/resolver"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(buildlibsslMain())
}

// buildlibsslMain is the main function and returns the exit code.
func buildlibsslMain() int {
	logHandler := logx.NewHandlerWithDefaultSettings()
	logHandler.Emoji = true
	log.Log = &log.Logger{Level: log.InfoLevel, Handler: logHandler}

	root := newRootCommand(os.Args[1:])
	if err := root.Execute(); err != nil {
		log.WithError(err).Error("build-libssl failed")
		return 1
	}
	return 0
}

// longHelp is the long description of the root command.
var longHelp = wordwrap.WrapString(
	"Builds OpenSSL for the given Apple targets, merges the static libraries "+
		"of each platform family into lib/<Family>/{libssl,libcrypto}.a using lipo, "+
		"and installs the headers into include/openssl. The CURL_OPTIONS and "+
		"CONFIG_OPTIONS environment variables contain extra options for curl and "+
		"for OpenSSL's Configure.", 72) + "\n\n" +
	"Supported targets:\n\n" +
	wordwrap.WrapString(strings.Join(buildmodel.AllTargets, " "), 72) + "\n\n" +
	"Default targets:\n\n" +
	wordwrap.WrapString(strings.Join(buildmodel.DefaultTargets, " "), 72)

// newRootCommand creates the root [cobra.Command] for the given arguments.
func newRootCommand(args []string) *cobra.Command {
	flags := &resolver.Flags{}
	cmd := &cobra.Command{
		Use:           "build-libssl",
		Short:         "Builds static OpenSSL libraries for Apple platforms",
		Long:          longHelp,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, arg := range resolver.UnknownArgs(cmd.Flags(), args) {
				log.Warnf("ignoring unknown argument: %s", arg)
			}
			if flags.ConfigFile != "" {
				if err := resolver.LoadConfigFile(cmd.Flags(), flags.ConfigFile, log.Log); err != nil {
					return err
				}
			}
			if flags.Verbose {
				log.SetLevel(log.DebugLevel)
			}
			return run(flags, os.Getenv)
		},
	}
	flags.AddFlags(cmd.Flags())
	cmd.SetArgs(args)
	return cmd
}
