// Package flagx contains helpers for reading a subset of the command line
// before the main flag set is parsed.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps only the arguments that belong to the flags listed in
// names. Both "-name value" and "-name=value" forms are understood; a value
// that itself starts with '-' is never consumed.
func FilterArgs(args []string, names []string) []string {
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}

	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := known[name]; keep {
				out = append(out, arg)
			}
			continue
		}

		if _, keep := known[arg]; !keep {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}

	return out
}

// lookupString parses only the given aliases out of args and returns the
// last value seen.
func lookupString(args []string, usage string, aliases ...string) string {
	var value string

	filters := make([]string, 0, len(aliases)*2)
	for _, a := range aliases {
		filters = append(filters, "-"+a, "--"+a)
	}

	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, a := range aliases {
		fs.StringVar(&value, a, "", usage)
	}
	_ = fs.Parse(FilterArgs(args, filters))

	return value
}

// ConfigFilePath returns the JSON config path given with -c or -config,
// or an empty string.
func ConfigFilePath() string {
	return lookupString(os.Args[1:], "Path to JSON config file", "c", "config")
}

// EnvFilePath returns the dotenv path given with -env.
func EnvFilePath() string {
	return lookupString(os.Args[1:], "Path to .env file", "env")
}
