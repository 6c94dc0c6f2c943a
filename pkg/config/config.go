package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/hearty/pkg/layout"
)

// Defaults applied when neither file, env, nor flag supplies a value.
const (
	DefaultListenAddr  = "0.0.0.0:2546"
	DefaultMetricsAddr = "0.0.0.0:9546"
	DefaultCacheDir    = "/tmp/hearty-store-cache"
	DefaultMaxCache    = 8
)

// Server holds heartyd's settings.
type Server struct {
	BasePath    string `yaml:"base_path"`
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Cache holds hearty-cache-agent's settings.
type Cache struct {
	ServerAddr  string `yaml:"server_addr"`
	CacheDir    string `yaml:"cache_dir"`
	MaxSize     int    `yaml:"max_cache_size"`
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// file is the on-disk shape both Server and Cache settings can appear
// under; a deployment only fills in the section it needs.
type file struct {
	BasePath     string `yaml:"base_path"`
	ListenAddr   string `yaml:"listen_addr"`
	MetricsAddr  string `yaml:"metrics_addr"`
	ServerAddr   string `yaml:"server_addr"`
	CacheDir     string `yaml:"cache_dir"`
	MaxCacheSize int    `yaml:"max_cache_size"`
}

func loadFile(path string) (file, error) {
	var f file
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, err
	}
	return f, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// LoadServer resolves heartyd's settings: configPath (optional) supplies
// file-level values, HEARTY_BASE_PATH/HEARTY_LISTEN_ADDR/HEARTY_METRICS_ADDR
// override them, and the flag values passed in (when non-empty) win over
// everything else.
func LoadServer(configPath, flagBasePath, flagListenAddr, flagMetricsAddr string) (Server, error) {
	f, err := loadFile(configPath)
	if err != nil {
		return Server{}, err
	}

	s := Server{
		BasePath:    layout.DefaultBasePath,
		ListenAddr:  DefaultListenAddr,
		MetricsAddr: DefaultMetricsAddr,
	}
	if f.BasePath != "" {
		s.BasePath = f.BasePath
	}
	if f.ListenAddr != "" {
		s.ListenAddr = f.ListenAddr
	}
	if f.MetricsAddr != "" {
		s.MetricsAddr = f.MetricsAddr
	}

	s.BasePath = envOr("HEARTY_BASE_PATH", s.BasePath)
	s.ListenAddr = envOr("HEARTY_LISTEN_ADDR", s.ListenAddr)
	s.MetricsAddr = envOr("HEARTY_METRICS_ADDR", s.MetricsAddr)

	if flagBasePath != "" {
		s.BasePath = flagBasePath
	}
	if flagListenAddr != "" {
		s.ListenAddr = flagListenAddr
	}
	if flagMetricsAddr != "" {
		s.MetricsAddr = flagMetricsAddr
	}
	return s, nil
}

// LoadCache resolves hearty-cache-agent's settings the same way LoadServer
// resolves the store server's.
func LoadCache(configPath, flagServerAddr, flagCacheDir, flagListenAddr string) (Cache, error) {
	f, err := loadFile(configPath)
	if err != nil {
		return Cache{}, err
	}

	c := Cache{
		ServerAddr: DefaultListenAddr,
		CacheDir:   DefaultCacheDir,
		MaxSize:    DefaultMaxCache,
	}
	if f.ServerAddr != "" {
		c.ServerAddr = f.ServerAddr
	}
	if f.CacheDir != "" {
		c.CacheDir = f.CacheDir
	}
	if f.MaxCacheSize > 0 {
		c.MaxSize = f.MaxCacheSize
	}
	if f.ListenAddr != "" {
		c.ListenAddr = f.ListenAddr
	}
	if f.MetricsAddr != "" {
		c.MetricsAddr = f.MetricsAddr
	}

	c.ServerAddr = envOr("HEARTY_SERVER_ADDR", c.ServerAddr)
	c.CacheDir = envOr("HEARTY_CACHE_DIR", c.CacheDir)
	c.MaxSize = envIntOr("HEARTY_MAX_CACHE_SIZE", c.MaxSize)

	if flagServerAddr != "" {
		c.ServerAddr = flagServerAddr
	}
	if flagCacheDir != "" {
		c.CacheDir = flagCacheDir
	}
	if flagListenAddr != "" {
		c.ListenAddr = flagListenAddr
	}
	return c, nil
}
