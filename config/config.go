// Package config reads the server settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"

	"github.com/stevemurr/gwconsole/schema"
	"github.com/stevemurr/gwconsole/store"
)

type Config struct {
	Host           string
	Port           string
	DataDir        string
	Backend        string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
	Lists          []string

	PostgresDSN string
	S3          store.S3Config
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func split(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DefaultDataDir is the XDG data directory of the console, used when
// DATA_DIR is not set.
func DefaultDataDir() string {
	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "gwconsole")
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "gwconsole")
}

// Load reads the configuration from the environment, applying defaults for
// anything unset. It does not validate; call Validate.
func Load() Config {
	pathStyle, _ := strconv.ParseBool(env("S3_PATH_STYLE", "false"))
	return Config{
		Host:           env("HOST", "0.0.0.0"),
		Port:           env("PORT", "8080"),
		DataDir:        env("DATA_DIR", DefaultDataDir()),
		Backend:        env("STORE_BACKEND", "json"),
		AllowedOrigins: split(env("ALLOWED_ORIGINS", "*")),
		LogLevel:       env("LOG_LEVEL", "info"),
		LogFormat:      env("LOG_FORMAT", "json"),
		Lists:          split(env("LISTS", strings.Join(schema.Presets(), ","))),
		PostgresDSN:    env("POSTGRES_DSN", ""),
		S3: store.S3Config{
			Bucket:          env("S3_BUCKET", ""),
			Region:          env("S3_REGION", "us-east-1"),
			Endpoint:        env("S3_ENDPOINT", ""),
			Prefix:          env("S3_PREFIX", ""),
			PathStyle:       pathStyle,
			AccessKeyID:     env("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: env("S3_SECRET_ACCESS_KEY", ""),
		},
	}
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT %q: want json or console", c.LogFormat)
	}
	if len(c.Lists) == 0 {
		return fmt.Errorf("LISTS: no lists configured")
	}
	for _, name := range c.Lists {
		if _, ok := schema.Preset(name); !ok {
			return fmt.Errorf("LISTS: unknown list %q (available: %s)", name, strings.Join(schema.Presets(), ", "))
		}
	}
	if c.Backend == "s3" && c.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required for the s3 backend")
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// ListNames returns the configured list names without duplicates, in
// configuration order.
func (c Config) ListNames() []string {
	seen := make(map[string]bool, len(c.Lists))
	var out []string
	for _, name := range c.Lists {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func (c Config) StoreOptions() store.Options {
	return store.Options{
		DataDir:     c.DataDir,
		PostgresDSN: c.PostgresDSN,
		S3:          c.S3,
	}
}
