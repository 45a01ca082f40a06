package config

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultConfigFile = "pymap.toml"

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Exclude       Exclude       `toml:"exclude"`
	Scan          Scan          `toml:"scan"`
	Output        Output        `toml:"output"`
	DB            Database      `toml:"db"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string   `toml:"project_root"`
	SourceRoots []string `toml:"source_roots"` // e.g. ["src"] for src/ layouts
}

type Exclude struct {
	Dirs         []string `toml:"dirs"`
	Files        []string `toml:"files"`
	UseGitignore *bool    `toml:"use_gitignore"`
}

type Scan struct {
	Workers      int   `toml:"workers"`
	MaxFileSize  int64 `toml:"max_file_size"`
	CacheEntries int   `toml:"cache_entries"` // in-memory extractions kept between watch rebuilds
}

type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"` // relative paths are resolved against the project root; "-" is stdout
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	ProjectKey  string        `toml:"project_key"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce"`
	MaxRebuildsPerSecond float64       `toml:"max_rebuilds_per_second"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
	OTLPInsecure   bool   `toml:"otlp_insecure"`
	ServiceName    string `toml:"service_name"`
}

var defaultExcludeDirs = []string{
	".git",
	".hg",
	".svn",
	"__pycache__",
	".mypy_cache",
	".pytest_cache",
	".ruff_cache",
}

// Default returns a configuration with every default applied, used when no
// config file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path when it exists. A missing file is only an error
// when the caller asked for it explicitly; otherwise the defaults apply,
// still subject to environment overrides.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg := &Config{}
			if err := finalize(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}
	return Load(path)
}

func finalize(cfg *Config) error {
	ApplyEnvOverrides(cfg)
	applyDefaults(cfg)
	normalize(cfg)
	return Validate(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.ProjectRoot) == "" {
		cfg.Paths.ProjectRoot = "."
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = append([]string(nil), defaultExcludeDirs...)
	}
	if cfg.Exclude.UseGitignore == nil {
		enabled := true
		cfg.Exclude.UseGitignore = &enabled
	}

	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = runtime.NumCPU()
	}
	if cfg.Scan.MaxFileSize <= 0 {
		cfg.Scan.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.Scan.CacheEntries <= 0 {
		cfg.Scan.CacheEntries = 4096
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "markdown"
	}
	if strings.TrimSpace(cfg.Output.Path) == "" {
		cfg.Output.Path = "mapping.md"
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = ".pymap/pymap.db"
	}
	if strings.TrimSpace(cfg.DB.ProjectKey) == "" {
		cfg.DB.ProjectKey = "default"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRebuildsPerSecond <= 0 {
		cfg.Watch.MaxRebuildsPerSecond = 1
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "pymap"
	}
}

func normalize(cfg *Config) {
	cfg.Paths.ProjectRoot = strings.TrimSpace(cfg.Paths.ProjectRoot)
	roots := make([]string, 0, len(cfg.Paths.SourceRoots))
	for _, root := range cfg.Paths.SourceRoots {
		root = strings.Trim(strings.TrimSpace(root), "/")
		if root == "" || root == "." {
			continue
		}
		roots = append(roots, root)
	}
	cfg.Paths.SourceRoots = roots
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.DB.ProjectKey = strings.TrimSpace(cfg.DB.ProjectKey)
	cfg.Observability.MetricsAddress = strings.TrimSpace(cfg.Observability.MetricsAddress)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
}

// GitignoreEnabled reports whether .gitignore entries extend the dir excludes.
func (e Exclude) GitignoreEnabled() bool {
	if e.UseGitignore == nil {
		return true
	}
	return *e.UseGitignore
}
