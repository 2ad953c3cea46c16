package config

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/burp2fs/internal/extract/domain"
)

// DefaultConfigFile is the config path used when none is given.
const DefaultConfigFile = "config.json"

const envPrefix = "B2FS_"

// AppConfig holds the settings of an extraction run.
type AppConfig struct {
	// InScopeDomains are literal domains or patterns, depending on UseRegex.
	InScopeDomains []string `koanf:"in_scope_domains"`

	// OutScopeDomains are always checked before InScopeDomains.
	OutScopeDomains []string `koanf:"out_scope_domains"`

	// UnwantedExtensions are suffixes matched against the lowercased URL path.
	UnwantedExtensions []string `koanf:"unwanted_extensions" validate:"dive,file_ext"`

	// UnwantedContentTypes are MIME types or prefixes (e.g. "image/") to skip.
	UnwantedContentTypes []string `koanf:"unwanted_content_types" validate:"dive,required"`

	OutputDir string `koanf:"output_dir" validate:"required"`
	UseRegex  bool   `koanf:"use_regex"`

	// InScopeFile and OutScopeFile name newline-delimited lists merged into
	// the inline lists.
	InScopeFile  string `koanf:"in_scope_file"`
	OutScopeFile string `koanf:"out_scope_file"`

	// HardenPaths rejects projections that would leave OutputDir.
	HardenPaths bool `koanf:"harden_paths"`

	// ManifestDB is the bbolt file recording written paths. Empty disables it.
	ManifestDB string `koanf:"manifest_db"`

	// ScopeCacheSize bounds the per-host verdict cache. Zero disables it.
	ScopeCacheSize int `koanf:"scope_cache_size" validate:"gte=0"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`
}

// DEFAULT_APP_CONFIG defines the settings used when neither the config file,
// the environment nor the command line provide a value.
var DEFAULT_APP_CONFIG = AppConfig{
	InScopeDomains:       []string{},
	OutScopeDomains:      []string{},
	UnwantedExtensions:   []string{},
	UnwantedContentTypes: []string{},
	OutputDir:            "output",
	UseRegex:             false,
	ScopeCacheSize:       1024,
	Env:                  "prod",
	LogLevel:             "info",
}

// listKeys are the keys whose environment values are split into lists.
var listKeys = map[string]bool{
	"in_scope_domains":       true,
	"out_scope_domains":      true,
	"unwanted_extensions":    true,
	"unwanted_content_types": true,
}

// LoadOptions selects the config file and the command line overrides.
type LoadOptions struct {
	// Path is the JSON config file. A missing file is not an error.
	Path string

	// Overrides are applied last, keyed like the config file.
	Overrides map[string]any
}

// validFileExt accepts a non-empty extension without whitespace or path separators.
func validFileExt(fl validator.FieldLevel) bool {
	ext := fl.Field().String()
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		return false
	}
	return !strings.ContainsFunc(ext, unicode.IsSpace)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// parserFor picks the config file format from the extension of path.
// Anything other than YAML or TOML is read as JSON.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return json.Parser()
	}
}

// fileLoader loads the config file at path, if it exists.
var fileLoader = func(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return k.Load(file.Provider(path), parserFor(path))
}

// envLoader loads environment variables with the prefix "B2FS_".
// List keys accept comma or space separated values; see splitList.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			value = strings.TrimSpace(value)

			if listKeys[key] {
				return key, splitList(value)
			}
			return key, value
		},
	}), nil)
}

// splitList splits an environment list on spaces and commas. Commas inside
// (), [] or {} and escaped commas belong to the entry, so patterns such as
// `a{1,3}\.com` survive.
func splitList(value string) []string {
	out := []string{}
	var (
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '\\' && i+1 < len(value):
			cur.WriteByte(c)
			i++
			cur.WriteByte(value[i])
			continue
		case c == '(' || c == '[' || c == '{':
			depth++
		case (c == ')' || c == ']' || c == '}') && depth > 0:
			depth--
		case c == ' ' || (c == ',' && depth == 0):
			flush()
			continue
		}
		cur.WriteByte(c)
	}
	flush()
	return out
}

// overrideLoader merges command line values over everything else.
var overrideLoader = func(k *koanf.Koanf, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(overrides, "."), nil)
}

// registerValidation registers the custom "file_ext" validation.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("file_ext", validFileExt)
}

// Load builds an AppConfig from defaults, the config file, the environment and
// opts.Overrides, in that order, and validates it.
func Load(opts LoadOptions) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := fileLoader(k, opts.Path); err != nil {
		return nil, fmt.Errorf("error loading config file %s: %w", opts.Path, err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	if err := overrideLoader(k, opts.Overrides); err != nil {
		return nil, fmt.Errorf("error loading overrides: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes every key of c to path in the format its extension selects.
// JSON is indented by four spaces. Lists are sorted so repeated saves produce
// identical files.
func (c *AppConfig) Save(path string) error {
	saved := *c
	saved.InScopeDomains = sortedCopy(c.InScopeDomains)
	saved.OutScopeDomains = sortedCopy(c.OutScopeDomains)
	saved.UnwantedExtensions = sortedCopy(c.UnwantedExtensions)
	saved.UnwantedContentTypes = sortedCopy(c.UnwantedContentTypes)

	k := koanf.New(".")
	if err := k.Load(structs.Provider(saved, "koanf"), nil); err != nil {
		return fmt.Errorf("error preparing config: %w", err)
	}
	parser := parserFor(path)
	raw, err := k.Marshal(parser)
	if err != nil {
		return fmt.Errorf("error marshalling config: %w", err)
	}

	if _, isJSON := parser.(*json.JSON); isJSON {
		var out bytes.Buffer
		if err := stdjson.Indent(&out, raw, "", "    "); err != nil {
			return fmt.Errorf("error formatting config: %w", err)
		}
		out.WriteByte('\n')
		raw = out.Bytes()
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("error writing config %s: %w", path, err)
	}
	return nil
}

// Policy builds the scope policy of the run. extraIn and extraOut are entries
// loaded from scope list files; they are merged with the inline lists.
func (c *AppConfig) Policy(extraIn, extraOut []string) domain.ScopePolicy {
	return domain.NewScopePolicy(
		append(slices.Clone(c.InScopeDomains), extraIn...),
		append(slices.Clone(c.OutScopeDomains), extraOut...),
		c.UnwantedExtensions,
		domain.MatchModeFromRegex(c.UseRegex),
	)
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}
