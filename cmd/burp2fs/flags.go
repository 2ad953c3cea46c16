package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/haukened/burp2fs/internal/extract/config"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	items      string
	configPath string
	saveConfig bool

	// overrides holds config keys set on the command line, keyed like the config file.
	overrides map[string]any
}

// listFlags maps list-valued flags to their config keys.
var listFlags = map[string]string{
	"in-scope":       "in_scope_domains",
	"out-scope":      "out_scope_domains",
	"unwanted-ext":   "unwanted_extensions",
	"unwanted-types": "unwanted_content_types",
}

func newFlagSet(output io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false

	fs.StringP("items", "i", "", "Items file; path to the XML file containing base64 encoded items (required)")
	fs.StringP("config", "c", config.DefaultConfigFile, "Config file; path to the JSON config file")
	fs.StringP("output-dir", "o", "", "Output directory for extracted files")
	fs.String("in-scope", "", "Comma-separated list of in-scope domains or regex patterns")
	fs.String("out-scope", "", "Comma-separated list of out-of-scope domains or regex patterns")
	fs.String("unwanted-ext", "", "Comma-separated list of unwanted file extensions")
	fs.String("unwanted-types", "", "Comma-separated list of unwanted content types")
	fs.BoolP("save-config", "s", false, "Save the current configuration to the config file")
	fs.BoolP("regex", "r", false, "Use regex patterns for in-scope and out-scope domains")

	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s --items FILE [options]\n\nExtract base64 encoded XML items into the filesystem.\n\n", appName)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args. A flag only overrides the config when it carries a
// value: an empty --output-dir or list flag leaves the configured value alone,
// and --regex can only switch pattern mode on.
func parseFlags(args []string, output io.Writer) (*cliOptions, error) {
	fs := newFlagSet(output)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := &cliOptions{overrides: make(map[string]any)}
	opts.items, _ = fs.GetString("items")
	opts.configPath, _ = fs.GetString("config")
	opts.saveConfig, _ = fs.GetBool("save-config")

	if opts.items == "" {
		return nil, errors.New("flag --items is required")
	}
	if dir, _ := fs.GetString("output-dir"); dir != "" {
		opts.overrides["output_dir"] = dir
	}
	for name, key := range listFlags {
		if v, _ := fs.GetString(name); v != "" {
			opts.overrides[key] = parseListArg(v)
		}
	}
	if regex, _ := fs.GetBool("regex"); regex {
		opts.overrides["use_regex"] = true
	}
	return opts, nil
}

// parseListArg splits a comma-separated value, trimming entries and dropping
// empty ones.
func parseListArg(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
