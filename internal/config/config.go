// Package config resolves the service settings. Values are layered, each
// overriding the previous: built-in defaults, the YAML file named by -config
// (or BLOG_CONFIG), BLOG_* environment variables (a .env file in the working
// directory is loaded first), then command line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/SergeyParamoshkin/blog/internal/cache"
	"github.com/SergeyParamoshkin/blog/internal/hashnode"
	"github.com/SergeyParamoshkin/blog/internal/logger"
	"github.com/SergeyParamoshkin/blog/internal/page"
)

const (
	EnvPrefix = "BLOG_"
	EnvFile   = ".env"

	DefaultAddr        = ":3333"
	DefaultDiagAddr    = ":9999"
	DefaultPostBaseURL = "https://pushpendra16.hashnode.dev"
)

var (
	ErrPageLimit = errors.New("blog.page_limit must be positive")
	ErrTimeout   = errors.New("hashnode.timeout must be positive")
)

type Config struct {
	Addr     string `yaml:"addr"`
	DiagAddr string `yaml:"diag_addr"`
	LogLevel string `yaml:"log_level"`

	// Routes prints the route docs and exits. Command line and env only.
	Routes bool `yaml:"-"`

	Hashnode    HashnodeConfig `yaml:"hashnode"`
	Blog        BlogConfig     `yaml:"blog"`
	Cache       CacheConfig    `yaml:"cache"`
	ProfilePath string         `yaml:"profile_path"`
}

type HashnodeConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Host     string        `yaml:"host"`
	Timeout  time.Duration `yaml:"timeout"`
}

type BlogConfig struct {
	PostBaseURL string `yaml:"post_base_url"`
	PageLimit   int    `yaml:"page_limit"`
}

type CacheConfig struct {
	// TTL of cached post lists. Zero or less disables caching.
	TTL time.Duration `yaml:"ttl"`
	// RedisAddr selects the Redis cache. Empty keeps lists in memory.
	RedisAddr string `yaml:"redis_addr"`
}

func Default() Config {
	return Config{
		Addr:     DefaultAddr,
		DiagAddr: DefaultDiagAddr,
		LogLevel: logger.DefaultLevel,
		Hashnode: HashnodeConfig{
			Endpoint: hashnode.DefaultEndpoint,
			Host:     hashnode.DefaultHost,
			Timeout:  hashnode.DefaultTimeout,
		},
		Blog: BlogConfig{
			PostBaseURL: DefaultPostBaseURL,
			PageLimit:   page.DefaultLimit,
		},
		Cache: CacheConfig{
			TTL: cache.DefaultTTL,
		},
	}
}

// Load resolves the configuration for the command line args (without the
// program name).
func Load(args []string) (Config, error) {
	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", EnvFile, err)
	}

	cfg := Default()

	path := getEnv(EnvPrefix+"CONFIG", "")
	if p, ok := lookupArg(args, "config"); ok {
		path = p
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	fs := cfg.flagSet()
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Blog.PageLimit <= 0 {
		return ErrPageLimit
	}
	if c.Hashnode.Timeout <= 0 {
		return ErrTimeout
	}

	return nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv() error {
	c.Addr = getEnv(EnvPrefix+"ADDR", c.Addr)
	c.DiagAddr = getEnv(EnvPrefix+"DIAG_ADDR", c.DiagAddr)
	c.LogLevel = getEnv(EnvPrefix+"LOG_LEVEL", c.LogLevel)
	c.Hashnode.Endpoint = getEnv(EnvPrefix+"HASHNODE_ENDPOINT", c.Hashnode.Endpoint)
	c.Hashnode.Host = getEnv(EnvPrefix+"HASHNODE_HOST", c.Hashnode.Host)
	c.Blog.PostBaseURL = getEnv(EnvPrefix+"POST_BASE_URL", c.Blog.PostBaseURL)
	c.Cache.RedisAddr = getEnv(EnvPrefix+"REDIS_ADDR", c.Cache.RedisAddr)
	c.ProfilePath = getEnv(EnvPrefix+"PROFILE_PATH", c.ProfilePath)

	var err error
	if c.Routes, err = getEnvBool(EnvPrefix+"ROUTES", c.Routes); err != nil {
		return err
	}
	if c.Blog.PageLimit, err = getEnvInt(EnvPrefix+"PAGE_LIMIT", c.Blog.PageLimit); err != nil {
		return err
	}
	if c.Hashnode.Timeout, err = getEnvDuration(EnvPrefix+"HASHNODE_TIMEOUT", c.Hashnode.Timeout); err != nil {
		return err
	}
	if c.Cache.TTL, err = getEnvDuration(EnvPrefix+"CACHE_TTL", c.Cache.TTL); err != nil {
		return err
	}

	return nil
}

// flagSet binds every setting to a flag whose default is the value resolved
// so far.
func (c *Config) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("blog", flag.ContinueOnError)

	fs.String("config", "", "YAML config file")
	fs.BoolVar(&c.Routes, "routes", c.Routes, "Generate router documentation")
	fs.StringVar(&c.Addr, "addr", c.Addr, "application port")
	fs.StringVar(&c.DiagAddr, "diag_addr", c.DiagAddr, "diag port")
	fs.StringVar(&c.LogLevel, "log_level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.Hashnode.Endpoint, "hashnode_endpoint", c.Hashnode.Endpoint, "Hashnode GraphQL endpoint")
	fs.StringVar(&c.Hashnode.Host, "hashnode_host", c.Hashnode.Host, "publication host")
	fs.DurationVar(&c.Hashnode.Timeout, "hashnode_timeout", c.Hashnode.Timeout, "upstream request timeout")
	fs.StringVar(&c.Blog.PostBaseURL, "post_base_url", c.Blog.PostBaseURL, "public address of the publication")
	fs.IntVar(&c.Blog.PageLimit, "page_limit", c.Blog.PageLimit, "posts on the blog index")
	fs.DurationVar(&c.Cache.TTL, "cache_ttl", c.Cache.TTL, "post list cache TTL, 0 disables")
	fs.StringVar(&c.Cache.RedisAddr, "redis_addr", c.Cache.RedisAddr, "Redis address, empty for in-memory cache")
	fs.StringVar(&c.ProfilePath, "profile", c.ProfilePath, "profile YAML, empty for the built-in one")

	return fs
}

// lookupArg finds the value of -name or --name in args ahead of the real
// flag parse.
func lookupArg(args []string, name string) (string, bool) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return "", false
		}
		if !strings.HasPrefix(a, "-") {
			continue
		}

		a = strings.TrimPrefix(strings.TrimPrefix(a, "-"), "-")
		if a == name && i+1 < len(args) {
			return args[i+1], true
		}
		if v, ok := strings.CutPrefix(a, name+"="); ok {
			return v, true
		}
	}

	return "", false
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return fallback
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}

	return b, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}

	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}

	return d, nil
}
