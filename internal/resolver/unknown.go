package resolver

//
// Unrecognized command line tokens
//

import (
	"strings"

	"github.com/spf13/pflag"
)

// UnknownArgs returns the command line tokens that do not correspond
// to any flag registered in fs, including stray positional arguments.
// We use it to warn about tokens that pflag was told to ignore.
func UnknownArgs(fs *pflag.FlagSet, args []string) []string {
	var unknown []string
	for idx := 0; idx < len(args); idx++ {
		arg := args[idx]
		switch {
		case arg == "--":
			return append(unknown, args[idx+1:]...)

		case strings.HasPrefix(arg, "--"):
			name, _, hasValue := strings.Cut(arg[2:], "=")
			flag := fs.Lookup(name)
			if flag == nil {
				unknown = append(unknown, arg)
				continue
			}
			if !hasValue && flag.NoOptDefVal == "" {
				idx++ // the value is the next token
			}

		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			name, _, hasValue := strings.Cut(arg[1:], "=")
			flag := fs.ShorthandLookup(name[:1])
			if flag == nil {
				unknown = append(unknown, arg)
				continue
			}
			if !hasValue && len(name) == 1 && flag.NoOptDefVal == "" {
				idx++
			}

		default:
			unknown = append(unknown, arg)
		}
	}
	return unknown
}
