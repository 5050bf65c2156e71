/*
Package config loads the YAML configuration object accepted by
store.Open: a diagnostic name, an auxiliary directory, connection
options, and an optional id prefix for absolutizing relative refs.
*/
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPort is used when an endpoint URI omits one.
const DefaultPort = "6379"

// Opts holds the connection-level knobs of the configuration object.
type Opts struct {
	Endpoint       string        `yaml:"endpoint"`
	PoolSize       int           `yaml:"poolSize"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	ReceiveTimeout time.Duration `yaml:"receiveTimeout"`
}

// Config is the top-level configuration object accepted by store.Open.
type Config struct {
	Name     string `yaml:"name"`
	Dir      string `yaml:"dir"`
	Opts     Opts   `yaml:"opts"`
	IDPrefix string `yaml:"idPrefix"`
}

// Default returns a Config with every field set to its documented
// default: endpoint localhost on DefaultPort/db 0, pool size 3, 5s
// connect timeout, 30s receive timeout.
func Default() Config {
	return Config{
		Name: "folio",
		Opts: Opts{
			Endpoint:       "folio://localhost:" + DefaultPort + "/0",
			PoolSize:       3,
			ConnectTimeout: 5 * time.Second,
			ReceiveTimeout: 30 * time.Second,
		},
	}
}

// Load reads and parses a YAML configuration file, filling unset
// fields with Default's values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Opts.Endpoint == "" {
		cfg.Opts.Endpoint = def.Opts.Endpoint
	}
	if cfg.Opts.PoolSize <= 0 {
		cfg.Opts.PoolSize = def.Opts.PoolSize
	}
	if cfg.Opts.ConnectTimeout <= 0 {
		cfg.Opts.ConnectTimeout = def.Opts.ConnectTimeout
	}
	if cfg.Opts.ReceiveTimeout <= 0 {
		cfg.Opts.ReceiveTimeout = def.Opts.ReceiveTimeout
	}
}

// Endpoint is a parsed connection URI: scheme://[:password@]host:port[/db].
// Only path position 0 is consulted as the optional numeric namespace
// index; non-numeric path components are ignored and db defaults to 0.
type Endpoint struct {
	Scheme   string
	Host     string
	Password string
	DB       int
}

// ParseEndpoint parses a connection URI of the shape documented on
// Config.Opts.Endpoint.
func ParseEndpoint(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: missing host", raw)
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), DefaultPort)
	}
	ep := Endpoint{Scheme: u.Scheme, Host: host}
	if pw, ok := u.User.Password(); ok {
		ep.Password = pw
	}
	trimmed := strings.TrimPrefix(u.Path, "/")
	if trimmed != "" {
		if db, err := strconv.Atoi(trimmed); err == nil {
			ep.DB = db
		}
	}
	return ep, nil
}
