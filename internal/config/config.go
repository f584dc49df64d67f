package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix      = "SALES_"
	defaultEnvFile = ".env"
	defaultFile    = "config.yaml"

	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server struct {
		Port    int `koanf:"port"`
		Timeout struct {
			Read     time.Duration `koanf:"read"`
			Write    time.Duration `koanf:"write"`
			Idle     time.Duration `koanf:"idle"`
			Shutdown time.Duration `koanf:"shutdown"`
		} `koanf:"timeout"`
	} `koanf:"server"`

	Store struct {
		Driver string `koanf:"driver"`
		Path   string `koanf:"path"`
		Seed   bool   `koanf:"seed"`
	} `koanf:"store"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`

	Dashboard struct {
		Timezone string `koanf:"timezone"`
	} `koanf:"dashboard"`

	AMQP struct {
		URL      string `koanf:"url"`
		Exchange string `koanf:"exchange"`
		Queue    string `koanf:"queue"`
	} `koanf:"amqp"`
}

func (c Config) String() string {
	return fmt.Sprintf("server.port=%d, server.timeout.read=%v, server.timeout.write=%v, server.timeout.idle=%v, store.driver=%s, store.path=%s, store.seed=%t, log.level=%s, log.format=%s, dashboard.timezone=%s, amqp.url=%s",
		c.Server.Port,
		c.Server.Timeout.Read,
		c.Server.Timeout.Write,
		c.Server.Timeout.Idle,
		c.Store.Driver,
		c.Store.Path,
		c.Store.Seed,
		c.Log.Level,
		c.Log.Format,
		c.Dashboard.Timezone,
		maskURL(c.AMQP.URL))
}

// Location returns the time zone used to interpret calendar-day filter bounds.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Dashboard.Timezone)
}

func defaults() map[string]any {
	return map[string]any{
		"server.port":             8081,
		"server.timeout.read":     "10s",
		"server.timeout.write":    "10s",
		"server.timeout.idle":     "60s",
		"server.timeout.shutdown": "5s",
		"store.driver":            DriverMemory,
		"store.path":              "./data/sales.db",
		"store.seed":              true,
		"log.level":               "info",
		"log.format":              "json",
		"dashboard.timezone":      "UTC",
		"amqp.exchange":           "sales",
		"amqp.queue":              "sale_recorded",
	}
}

// Load reads defaults, then config.yaml, then .env, then SALES_* environment variables.
// Later sources win.
func Load() (*Config, error) {
	return LoadFrom(defaultFile, defaultEnvFile)
}

// LoadFrom is Load with explicit file locations. Missing files are skipped.
func LoadFrom(configFile, envFile string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	// 2. YAML config file
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("WARN: error loading YAML config file '%s': %v", configFile, err)
		}
	}

	// 3. .env file
	if envFileMap, err := godotenv.Read(envFile); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if !strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				continue
			}
			envMap[keyTransformer(key)] = value
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 4. System environment, highest priority
	if err := k.Load(env.Provider(envPrefix, ".", keyTransformer), nil); err != nil {
		log.Printf("WARN: error loading env vars: %v", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid server port %d: must be between 1 and 65535", c.Server.Port))
	}
	if c.Server.Timeout.Read <= 0 {
		problems = append(problems, fmt.Sprintf("invalid server read timeout: %v", c.Server.Timeout.Read))
	}
	if c.Server.Timeout.Write <= 0 {
		problems = append(problems, fmt.Sprintf("invalid server write timeout: %v", c.Server.Timeout.Write))
	}
	if c.Server.Timeout.Idle <= 0 {
		problems = append(problems, fmt.Sprintf("invalid server idle timeout: %v", c.Server.Timeout.Idle))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			problems = append(problems, "store path cannot be empty when using the sqlite driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid store driver '%s': must be one of [%s %s]", c.Store.Driver, DriverMemory, DriverSQLite))
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be json or console", c.Log.Format))
	}

	if _, err := c.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("invalid dashboard timezone '%s': %v", c.Dashboard.Timezone, err))
	}

	if c.AMQP.URL != "" {
		if u, err := url.Parse(c.AMQP.URL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQP.Exchange == "" || c.AMQP.Queue == "" {
			problems = append(problems, "AMQP exchange and queue cannot be empty when AMQP URL is provided")
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func maskURL(raw string) string {
	if raw == "" {
		return "<not configured>"
	}
	parts := strings.Split(raw, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}

// keyTransformer maps SALES_SERVER_PORT to server.port.
func keyTransformer(key string) string {
	key = strings.ToLower(key)
	key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
	return strings.ReplaceAll(key, "_", ".")
}
