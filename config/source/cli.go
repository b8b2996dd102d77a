package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// CLISource maps dotted long flags to nested keys:
//
//	--server.addr=:9090 --http.timeout 3s
//	  -> {server: {addr: ":9090"}, http: {timeout: "3s"}}
//
// Single-dash long flags (-app.name=x) are accepted too. Empty values and
// positional arguments are ignored. It is usually the last, highest
// precedence source.
type CLISource struct {
	// Args defaults to os.Args[1:].
	Args []string
}

func (c *CLISource) Name() string { return "cli" }

func (c *CLISource) Load(ctx context.Context) (map[string]any, error) {
	args := c.Args
	if args == nil {
		args = os.Args[1:]
	}
	return parseFlags(args), nil
}

func parseFlags(raw []string) map[string]any {
	result := make(map[string]any)
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	args := normalizeArgs(raw)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := extractFlagName(arg)
		if name == "" {
			continue
		}
		if fs.Lookup(name) == nil {
			fs.String(name, "", fmt.Sprintf("config value for %s", name))
		}
		// "--flag value" consumes the next argument
		if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}

	_ = fs.Parse(args)

	fs.Visit(func(flag *pflag.Flag) {
		if value := flag.Value.String(); value != "" {
			setNestedValue(result, strings.Split(flag.Name, "."), value)
		}
	})
	return result
}

// normalizeArgs rewrites single-dash long flags as double-dash for pflag.
func normalizeArgs(args []string) []string {
	normalized := make([]string, len(args))
	for i, arg := range args {
		rest, single := strings.CutPrefix(arg, "-")
		if single && !strings.HasPrefix(rest, "-") && len(rest) > 1 && rest[0] != '=' {
			normalized[i] = "--" + rest
			continue
		}
		normalized[i] = arg
	}
	return normalized
}

// extractFlagName strips dashes and any "=value" suffix.
func extractFlagName(arg string) string {
	arg = strings.TrimLeft(arg, "-")
	name, _, _ := strings.Cut(arg, "=")
	return name
}
