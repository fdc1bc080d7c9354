// Package aggregate merges the per-target static libraries of each
// platform family into multi-architecture archives using lipo.
package aggregate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/ooni/build-libssl/internal/model"
	"github.com/ooni/build-libssl/internal/runtimex"
	"github.com/ooni/build-libssl/internal/shellx"
)

// Output describes the merged libraries of a family.
type Output struct {
	// Family is the platform family.
	Family buildmodel.Family

	// LibSSL is the path of the merged libssl.a.
	LibSSL string

	// LibCrypto is the path of the merged libcrypto.a.
	LibCrypto string
}

// Merger merges libraries. The zero value is invalid; please, make
// sure you initialize all the fields marked as MANDATORY.
type Merger struct {
	// Root is the MANDATORY directory containing lib/.
	Root string

	// Logger is the MANDATORY logger.
	Logger model.Logger
}

// Merge creates lib/<Family>/libssl.a and lib/<Family>/libcrypto.a
// for each family that has at least one result. Device and simulator
// results end up inside the same archive.
func (m *Merger) Merge(result *buildmodel.BuildLoopResult) ([]Output, error) {
	runtimex.Assert(result != nil, "nil result")
	var outputs []Output
	for _, agg := range result.Aggregates {
		if agg.Len() <= 0 {
			continue
		}
		output, err := m.mergeFamily(agg)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, output)
	}
	return outputs, nil
}

func (m *Merger) mergeFamily(agg *buildmodel.FamilyAggregate) (Output, error) {
	m.Logger.Infof("creating the %s libraries", agg.Family)
	destdir := filepath.Join(m.Root, "lib", agg.Family.String())
	if err := os.MkdirAll(destdir, 0755); err != nil {
		return Output{}, err
	}
	var libssl, libcrypto []string
	for _, member := range agg.Members() {
		libssl = append(libssl, member.LibSSL)
		libcrypto = append(libcrypto, member.LibCrypto)
	}
	output := Output{
		Family:    agg.Family,
		LibSSL:    filepath.Join(destdir, "libssl.a"),
		LibCrypto: filepath.Join(destdir, "libcrypto.a"),
	}
	if err := m.lipo(libssl, output.LibSSL); err != nil {
		return Output{}, err
	}
	if err := m.lipo(libcrypto, output.LibCrypto); err != nil {
		return Output{}, err
	}
	return output, nil
}

func (m *Merger) lipo(inputs []string, output string) error {
	argv, err := shellx.NewArgv("lipo", "-create")
	if err != nil {
		return err
	}
	argv.Append(inputs...)
	argv.Append("-output", output)
	config := &shellx.Config{
		Logger: m.Logger,
		Flags:  shellx.FlagShowStdoutStderr,
	}
	if err := shellx.RunEx(config, argv, &shellx.Envp{}); err != nil {
		return fmt.Errorf("cannot create %s: %w", output, err)
	}
	return nil
}
