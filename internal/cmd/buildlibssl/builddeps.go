package main

import (
	"runtime"
	"strings"

	"github.com/apex/log"
	"github.com/ooni/build-libssl/internal/buildloop"
	"github.com/ooni/build-libssl/internal/must"
	"github.com/ooni/build-libssl/internal/resolver"
	"github.com/ooni/build-libssl/internal/shellx"
	"github.com/ooni/build-libssl/internal/source"
	"github.com/shirou/gopsutil/v3/cpu"
)

// buildDeps is the default implementation of the dependencies
// of the resolver and of the build loop.
type buildDeps struct {
	// curlOptions contains the split value of CURL_OPTIONS.
	curlOptions []string
}

// newBuildDeps creates a new [*buildDeps] reading CURL_OPTIONS using getenv.
func newBuildDeps(getenv func(string) string) (*buildDeps, error) {
	curlOptions, err := resolver.SplitEnv(getenv, "CURL_OPTIONS")
	if err != nil {
		return nil, err
	}
	return &buildDeps{curlOptions: curlOptions}, nil
}

var (
	_ resolver.Dependencies  = &buildDeps{}
	_ buildloop.Dependencies = &buildDeps{}
)

// SDKVersion implements resolver.Dependencies
func (*buildDeps) SDKVersion(sdk string) (string, error) {
	data, err := shellx.Output(log.Log, "xcrun", "-sdk", sdk, "--show-sdk-version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(must.FirstLineBytes(data))), nil
}

// NumCPU implements resolver.Dependencies
func (*buildDeps) NumCPU() int {
	if count, err := cpu.Counts(true); err == nil && count > 0 {
		return count
	}
	return runtime.NumCPU()
}

// LatestInBranch implements resolver.Dependencies
func (d *buildDeps) LatestInBranch(branch string) (string, error) {
	return d.fetcher().LatestInBranch(branch)
}

// DeveloperDir implements buildloop.Dependencies
func (*buildDeps) DeveloperDir() (string, error) {
	argv, err := shellx.ParseCommandLine("xcode-select -print-path")
	if err != nil {
		return "", err
	}
	config := &shellx.Config{
		Logger: log.Log,
		Flags:  shellx.FlagShowStdoutStderr,
	}
	data, err := shellx.OutputEx(config, argv, &shellx.Envp{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(must.FirstLineBytes(data))), nil
}

// fetcher returns the [*source.Fetcher] to use.
func (d *buildDeps) fetcher() *source.Fetcher {
	return source.NewFetcher(log.Log, d.curlOptions)
}
