// Package config loads the project configuration file (.mdxdb.json) and turns
// it into database options.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/mdxdb/mdxdb/internal/platform"
	"github.com/mdxdb/mdxdb/pkg/adapters/fs"
	"github.com/mdxdb/mdxdb/pkg/collection"
	"github.com/mdxdb/mdxdb/pkg/mdxld"
)

var (
	errConfigInvalid      = errors.New("invalid config")
	errConfigFileNotFound = errors.New("config file not found")
)

// Redis holds the connection settings of the redis adapter.
type Redis struct {
	Addr     string `json:"addr,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
}

// Config holds all configuration options.
type Config struct {
	Backend           string `json:"backend"`
	BasePath          string `json:"base_path"`
	Extension         string `json:"extension"`
	CreateDirectories *bool  `json:"create_directories,omitempty"`
	Format            string `json:"format,omitempty"`
	ListPolicy        string `json:"list_policy,omitempty"`
	IDs               string `json:"ids,omitempty"`
	SQLitePath        string `json:"sqlite_path,omitempty"`
	Redis             Redis  `json:"redis,omitzero"`
	MaxDocs           int    `json:"max_docs,omitempty"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Backend:   platform.AdapterFS,
		BasePath:  fs.DefaultBasePath,
		Extension: fs.DefaultExtension,
	}
}

// Load resolves the configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Project config file found by walking up from workDir, or configPath when non-empty
// 3. overrides (non-zero fields only)
//
// It returns the config and the path of the file loaded, if any. Relative
// paths in a file are resolved against the directory holding it.
func Load(workDir, configPath string, overrides Config) (Config, string, error) {
	cfg := Default()

	file, mustExist := configPath, true
	if file == "" {
		mustExist = false
		if root, err := platform.FindRoot(workDir); err == nil {
			file = filepath.Join(root, platform.ConfigFileName)
		}
	} else if !filepath.IsAbs(file) {
		file = filepath.Join(workDir, file)
	}

	var loaded string
	if file != "" {
		fileCfg, ok, err := loadFile(file, mustExist)
		if err != nil {
			return Config{}, "", err
		}
		if ok {
			cfg = Merge(cfg, fileCfg.resolve(filepath.Dir(file)))
			loaded = file
		}
	}

	cfg = Merge(cfg, overrides)
	if err := cfg.Validate(); err != nil {
		return Config{}, "", fmt.Errorf("%w: %w", errConfigInvalid, err)
	}
	return cfg, loaded, nil
}

func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}
		if os.IsNotExist(err) {
			return Config{}, false, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}
		return Config{}, false, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, true, nil
}

// Parse decodes a JSON-with-comments config document.
func Parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func (c Config) resolve(dir string) Config {
	if c.BasePath != "" && !filepath.IsAbs(c.BasePath) {
		c.BasePath = filepath.Join(dir, c.BasePath)
	}
	if c.SQLitePath != "" && !filepath.IsAbs(c.SQLitePath) {
		c.SQLitePath = filepath.Join(dir, c.SQLitePath)
	}
	return c
}

// Merge overlays the non-zero fields of overlay on base.
func Merge(base, overlay Config) Config {
	if overlay.Backend != "" {
		base.Backend = overlay.Backend
	}
	if overlay.BasePath != "" {
		base.BasePath = overlay.BasePath
	}
	if overlay.Extension != "" {
		base.Extension = overlay.Extension
	}
	if overlay.CreateDirectories != nil {
		base.CreateDirectories = overlay.CreateDirectories
	}
	if overlay.Format != "" {
		base.Format = overlay.Format
	}
	if overlay.ListPolicy != "" {
		base.ListPolicy = overlay.ListPolicy
	}
	if overlay.IDs != "" {
		base.IDs = overlay.IDs
	}
	if overlay.SQLitePath != "" {
		base.SQLitePath = overlay.SQLitePath
	}
	if overlay.Redis.Addr != "" {
		base.Redis.Addr = overlay.Redis.Addr
	}
	if overlay.Redis.Password != "" {
		base.Redis.Password = overlay.Redis.Password
	}
	if overlay.Redis.DB != 0 {
		base.Redis.DB = overlay.Redis.DB
	}
	if overlay.Redis.Prefix != "" {
		base.Redis.Prefix = overlay.Redis.Prefix
	}
	if overlay.MaxDocs != 0 {
		base.MaxDocs = overlay.MaxDocs
	}
	return base
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	switch platform.CanonicalAdapter(c.Backend) {
	case platform.AdapterFS, platform.AdapterSQLite, platform.AdapterRedis, platform.AdapterExternal:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := mdxld.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := parseListPolicy(c.ListPolicy); err != nil {
		return err
	}
	if _, err := idGenerator(c.IDs); err != nil {
		return err
	}
	if c.MaxDocs < 0 {
		return errors.New("max_docs must not be negative")
	}
	return nil
}

// URI returns the adapter-specific location handed to platform.New.
func (c Config) URI() string {
	switch platform.CanonicalAdapter(c.Backend) {
	case platform.AdapterSQLite:
		return c.SQLitePath
	case platform.AdapterRedis:
		return c.Redis.Addr
	}
	return c.BasePath
}

// Options translates the config into platform options. It assumes Validate passed.
func (c Config) Options() []platform.Option {
	format, _ := mdxld.ParseFormat(c.Format)
	policy, _ := parseListPolicy(c.ListPolicy)
	gen, _ := idGenerator(c.IDs)

	opts := []platform.Option{
		platform.WithAdapter(c.Backend),
		platform.WithFileExtension(c.Extension),
		platform.WithFormat(format),
		platform.WithListPolicy(policy),
		platform.WithIDGenerator(gen),
		platform.WithMaxDocs(c.MaxDocs),
		platform.WithRedisAuth(c.Redis.Password, c.Redis.DB),
		platform.WithRedisPrefix(c.Redis.Prefix),
	}
	if c.CreateDirectories != nil {
		opts = append(opts, platform.WithCreateDirectories(*c.CreateDirectories))
	}
	return opts
}

// Dump returns the config as indented JSON.
func (c Config) Dump() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}
	return string(data), nil
}

func parseListPolicy(s string) (fs.ListPolicy, error) {
	switch s {
	case "", "fail":
		return fs.ListFailFast, nil
	case "skip":
		return fs.ListSkipInvalid, nil
	}
	return fs.ListFailFast, fmt.Errorf("unknown list policy %q (want fail or skip)", s)
}

func idGenerator(s string) (func() string, error) {
	switch s {
	case "", "base36":
		return collection.GenerateID, nil
	case "uuid":
		return collection.UUIDGenerator, nil
	}
	return nil, fmt.Errorf("unknown id generator %q (want base36 or uuid)", s)
}
