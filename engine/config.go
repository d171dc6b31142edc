package engine

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"

	"github.com/wippyai/wasm-embed/errors"
)

// MaxMemoryLimitPages is the largest memory limit a 32-bit memory can use.
const MaxMemoryLimitPages = 65536

// Config holds configuration for engine creation.
type Config struct {
	// CacheDir persists compiled code across processes. Empty keeps the
	// compilation cache in memory.
	CacheDir string `toml:"cache_dir"`

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32 `toml:"memory_limit_pages"`

	// EnableThreads enables the WebAssembly threads proposal (experimental).
	// Thread operations are guest-only and not exposed to host functions.
	EnableThreads bool `toml:"threads"`

	// CloseOnContextDone stops running calls when their context is canceled.
	CloseOnContextDone bool `toml:"close_on_context_done"`

	// Debug enables debug logging through Logger.
	Debug bool `toml:"debug"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{CloseOnContextDone: true}
}

// Validate checks that the configuration can be applied.
func (c *Config) Validate() error {
	if c.MemoryLimitPages > MaxMemoryLimitPages {
		return errors.New(errors.PhaseConfig, errors.KindOutOfBounds).
			Path("memory_limit_pages").
			Value(c.MemoryLimitPages).
			Detail("must not exceed %d pages", MaxMemoryLimitPages).
			Build()
	}
	return nil
}

// ParseConfig decodes TOML configuration on top of DefaultConfig.
// Unknown keys are rejected.
func ParseConfig(data string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("unknown config keys: %v", undecoded).
			Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read config "+path)
	}
	return ParseConfig(string(data))
}

// ParseArgs applies command line flags to base, which is not modified.
// args excludes the program name. When --config is given the file replaces
// base, and explicitly set flags override the file.
func ParseArgs(args []string, base *Config) (*Config, error) {
	cfg := DefaultConfig()
	if base != nil {
		cfg = *base
	}

	fs := pflag.NewFlagSet("engine", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "TOML engine configuration file")
	pages := fs.Uint32("memory-limit-pages", cfg.MemoryLimitPages, "maximum memory per instance in 64KiB pages")
	threads := fs.Bool("threads", cfg.EnableThreads, "enable the threads proposal")
	cacheDir := fs.String("cache-dir", cfg.CacheDir, "directory for the compilation cache")
	closeOnDone := fs.Bool("close-on-context-done", cfg.CloseOnContextDone, "stop calls when their context is done")
	debug := fs.Bool("debug", cfg.Debug, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse engine arguments")
	}
	if fs.NArg() > 0 {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("unexpected arguments: %v", fs.Args()).
			Build()
	}

	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if fs.Changed("memory-limit-pages") {
		cfg.MemoryLimitPages = *pages
	}
	if fs.Changed("threads") {
		cfg.EnableThreads = *threads
	}
	if fs.Changed("cache-dir") {
		cfg.CacheDir = *cacheDir
	}
	if fs.Changed("close-on-context-done") {
		cfg.CloseOnContextDone = *closeOnDone
	}
	if fs.Changed("debug") {
		cfg.Debug = *debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) compilationCache() (wazero.CompilationCache, error) {
	if c.CacheDir == "" {
		return wazero.NewCompilationCache(), nil
	}
	cache, err := wazero.NewCompilationCacheWithDir(c.CacheDir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "open compilation cache "+c.CacheDir)
	}
	return cache, nil
}

func (c *Config) runtimeConfig(cache wazero.CompilationCache) wazero.RuntimeConfig {
	rc := wazero.NewRuntimeConfig().
		WithCompilationCache(cache).
		WithCloseOnContextDone(c.CloseOnContextDone)
	if c.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(c.MemoryLimitPages)
	}
	if c.EnableThreads {
		rc = rc.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
	}
	return rc
}
