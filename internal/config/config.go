// Package config holds the devserve runtime configuration. A Config is
// built once at startup from command-line flags and an optional TOML file,
// validated, and never mutated afterwards, so it is safe to share across
// concurrent requests.
package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Defaults applied before the config file and flags are considered.
const (
	DefaultAddr     = "0.0.0.0:4000"
	DefaultWSPort   = 8090
	DefaultRoot     = "."
	DefaultLogLevel = "info"
)

// Config is the complete server configuration.
type Config struct {
	// Addr is the IP:PORT combination the HTTP server binds to.
	Addr string `toml:"addr"`
	// WSPort is the port of the websocket endpoint used for live-reload
	// notifications. It is injected into every served HTML page.
	WSPort int `toml:"ws_port"`
	// Root is the directory files are served from. Made absolute during
	// validation.
	Root string `toml:"root"`
	// LogLevel is the minimum zerolog level ("debug", "info", ...).
	LogLevel string `toml:"log_level"`
	// ListDirs enables HTML directory listings for directories that have
	// no index.html. Off by default: without it such requests are 404s.
	ListDirs bool `toml:"list_dirs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:     DefaultAddr,
		WSPort:   DefaultWSPort,
		Root:     DefaultRoot,
		LogLevel: DefaultLogLevel,
	}
}

// Load parses the command line (without the program name) into a Config.
// Precedence, lowest to highest: built-in defaults, the TOML file named by
// -config (if any), flags given explicitly on the command line. The result
// is validated; a malformed address or unusable root is a startup error.
func Load(args []string, stderr io.Writer) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("devserve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", cfg.Addr, "IP:PORT combination to serve on")
	wsPort := fs.Int("ws-port", cfg.WSPort, "port for the live-reload websocket endpoint")
	root := fs.String("root", cfg.Root, "root directory for serving files")
	logLevel := fs.String("log-level", cfg.LogLevel, "minimum log level (trace, debug, info, warn, error)")
	listDirs := fs.Bool("list-dirs", cfg.ListDirs, "render directory listings when index.html is absent")
	configPath := fs.String("config", "", "optional TOML config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", *configPath, err)
		}
	}

	// Flags given explicitly override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "ws-port":
			cfg.WSPort = *wsPort
		case "root":
			cfg.Root = *root
		case "log-level":
			cfg.LogLevel = *logLevel
		case "list-dirs":
			cfg.ListDirs = *listDirs
		}
	})

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	host, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Addr, err)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("invalid listen address %q: bad port %q", c.Addr, port)
	}
	if host != "" && net.ParseIP(host) == nil {
		return fmt.Errorf("invalid listen address %q: host is not an IP", c.Addr)
	}

	if c.WSPort < 1 || c.WSPort > 65535 {
		return fmt.Errorf("invalid websocket port %d", c.WSPort)
	}

	absRoot, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve root directory %q: %w", c.Root, err)
	}
	fi, err := os.Stat(absRoot)
	if err != nil {
		return fmt.Errorf("root directory %s is not usable: %w", absRoot, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("root path %s is not a directory", absRoot)
	}
	c.Root = absRoot

	return nil
}

// WSAddr returns the bind address for the live-reload websocket endpoint:
// the HTTP host combined with WSPort.
func (c *Config) WSAddr() string {
	host, _, err := net.SplitHostPort(c.Addr)
	if err != nil {
		// validate guarantees Addr splits; keep a sane fallback anyway.
		host = ""
	}
	return net.JoinHostPort(host, strconv.Itoa(c.WSPort))
}
