package resolver

//
// Flag defaults from a YAML file
//

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/ooni/build-libssl/internal/model"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// LoadConfigFile reads a YAML mapping from long flag names to values and
// applies each value to fs unless the flag was set on the command line.
// Unknown keys are logged and ignored.
func LoadConfigFile(fs *pflag.FlagSet, filename string, logger model.Logger) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	// note: decoding into nodes preserves the scalars' text, so that
	// `ios-sdk: 17.0` does not become 17
	var values map[string]yaml.Node
	if err := yaml.Unmarshal(data, &values); err != nil {
		return &buildmodel.ConfigurationError{Reason: fmt.Sprintf("cannot parse %s: %s", filename, err.Error())}
	}

	// sort for predictable logging
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		flag := fs.Lookup(key)
		if flag == nil || key == "config" {
			logger.Warnf("%s: ignoring unknown key: %s", filename, key)
			continue
		}
		if flag.Changed {
			logger.Debugf("%s: --%s overrides %s", filename, key, key)
			continue
		}
		node := values[key]
		if err := fs.Set(key, nodeString(&node)); err != nil {
			return &buildmodel.ConfigurationError{Reason: fmt.Sprintf("%s: invalid %s: %s", filename, key, err.Error())}
		}
	}
	return nil
}

// nodeString converts a YAML node to a flag value. Sequences
// become space-separated strings (e.g., for targets).
func nodeString(node *yaml.Node) string {
	if node.Kind != yaml.SequenceNode {
		return node.Value
	}
	var parts []string
	for _, entry := range node.Content {
		parts = append(parts, entry.Value)
	}
	return strings.Join(parts, " ")
}
