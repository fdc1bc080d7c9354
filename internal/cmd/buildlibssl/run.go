package main

//
// Running the whole build
//

import (
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/ooni/build-libssl/internal/aggregate"
	"github.com/ooni/build-libssl/internal/buildloop"
	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/ooni/build-libssl/internal/confheader"
	"github.com/ooni/build-libssl/internal/resolver"
)

// run resolves the flags and builds all the targets.
func run(flags *resolver.Flags, getenv func(string) string) error {
	deps, err := newBuildDeps(getenv)
	if err != nil {
		return err
	}
	settings, err := resolver.Resolve(flags, getenv, deps)
	if err != nil {
		return err
	}
	var names []string
	for _, target := range settings.Targets {
		names = append(names, target.Name)
	}
	log.Infof("building OpenSSL %s using %d threads", settings.Version, settings.Threads)
	log.Infof("targets: %s", strings.Join(names, " "))

	if err := os.MkdirAll(settings.RepoRoot, 0755); err != nil {
		return err
	}
	archive, err := deps.fetcher().Acquire(settings.RepoRoot, settings.Version)
	if err != nil {
		return err
	}

	builder := &buildloop.Builder{
		Deps:     deps,
		Logger:   log.Log,
		Settings: settings,
	}
	result, err := builder.Run(archive)
	if err != nil {
		return err
	}

	merger := &aggregate.Merger{Root: settings.RepoRoot, Logger: log.Log}
	outputs, err := merger.Merge(result)
	if err != nil {
		return err
	}
	unifier := &confheader.Unifier{Logger: log.Log, Settings: settings}
	if err := unifier.Unify(result); err != nil {
		return err
	}

	summarize(settings, outputs)
	return nil
}

// summarize logs where to find the build outputs.
func summarize(settings *buildmodel.Settings, outputs []aggregate.Output) {
	log.Infof("done building OpenSSL %s", settings.Version)
	for _, output := range outputs {
		log.Infof("%s: %s %s", output.Family, output.LibSSL, output.LibCrypto)
	}
	log.Infof("headers: %s", settings.IncludeDir())
}
