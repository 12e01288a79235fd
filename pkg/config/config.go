package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/cmap-bc/pkg/nodetype"
)

// DefaultFile is read from the working directory when --config is not given
const DefaultFile = "cmap-bc.toml"

// EnvPrefix prefixes environment overrides, e.g. CMAP_BC_PORT=9090
const EnvPrefix = "CMAP_BC_"

// ErrNoCXL is returned by Validate when no CXL file is configured
var ErrNoCXL = errors.New("no CXL file configured")

// Config holds all configuration for the application
type Config struct {
	CXLFile     string `koanf:"cxl"`
	Terminology string `koanf:"terminology"`
	OutputDir   string `koanf:"output"`
	GraphML     bool   `koanf:"graphml"`
	DOT         bool   `koanf:"dot"`
	Report      bool   `koanf:"report"`
	Database    string `koanf:"db"`
	WebMode     bool   `koanf:"web"`
	Port        int    `koanf:"port"`
	Watch       bool   `koanf:"watch"`
	Verbosity   string `koanf:"verbosity"`
	VerboseCnt  int    `koanf:"verbose"`
	JSONLog     bool   `koanf:"json"`

	// Decoded separately so that unknown node type attributes are rejected
	NodeTypes []nodetype.NodeType `koanf:"-"`
}

// RegisterFlags defines the command line flags Load reads
func RegisterFlags(f *pflag.FlagSet) {
	f.String("config", "", "Configuration file (default "+DefaultFile+" if present)")
	f.StringP("cxl", "f", "", "CmapTools CXL export to load")
	f.StringP("terminology", "t", "", "YAML file with the CT subsets of the conceptual domains")
	f.StringP("output", "o", ".", "Directory for the BC JSON, GraphML and report files")
	f.Bool("graphml", true, "Write the GraphML export")
	f.Bool("dot", false, "Write the Graphviz DOT export")
	f.Bool("report", true, "Write the CSV concept report")
	f.String("db", "", "SQLite database to store the BC in")
	f.Bool("web", false, "Serve the BC and graph over HTTP")
	f.Int("port", 8080, "Port for the web server")
	f.Bool("watch", false, "Re-run when the CXL or terminology file changes")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("json", false, "Log as JSON")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"cxl":         "",
		"terminology": "",
		"output":      ".",
		"graphml":     true,
		"dot":         false,
		"report":      true,
		"db":          "",
		"web":         false,
		"port":        8080,
		"watch":       false,
		"verbosity":   "",
		"verbose":     0,
		"json":        false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file. An explicit --config must exist; the default is optional.
	path, explicit := configPath(f)
	if _, err := os.Stat(path); err == nil || explicit {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// 3. Environment Variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	types, err := decodeNodeTypes(k.Get("node_types"))
	if err != nil {
		return nil, err
	}
	cfg.NodeTypes = types

	return &cfg, nil
}

func configPath(f *pflag.FlagSet) (string, bool) {
	if f != nil {
		if path, err := f.GetString("config"); err == nil && path != "" {
			return path, true
		}
	}
	return DefaultFile, false
}

// decodeNodeTypes decodes the [[node_types]] tables. An attribute the
// NodeType record does not know is an error.
func decodeNodeTypes(raw interface{}) ([]nodetype.NodeType, error) {
	if raw == nil {
		return nil, nil
	}

	var types []nodetype.NodeType
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		TagName:     "koanf",
		Result:      &types,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", nodetype.ErrInvalidCatalog, err)
	}
	return types, nil
}

// Catalog builds the node type catalog, falling back to the built-in
// node types when none are configured
func (c *Config) Catalog() (*nodetype.Catalog, error) {
	if len(c.NodeTypes) == 0 {
		return nodetype.NewCatalog(nodetype.Defaults())
	}
	return nodetype.NewCatalog(c.NodeTypes)
}

// Validate checks the settings a run needs
func (c *Config) Validate() error {
	if c.CXLFile == "" {
		return ErrNoCXL
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
