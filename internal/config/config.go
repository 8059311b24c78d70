// Package config loads taskowner settings.
//
// Settings are layered: built-in defaults, then an optional
// taskowner.toml file, then an optional .env file, then the process
// environment. Later layers win.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	internalstrings "github.com/amonks/taskowner/internal/strings"
	"github.com/amonks/taskowner/internal/validation"
	"github.com/amonks/taskowner/store"
)

// FileName is the config file looked up in the working directory.
const FileName = "taskowner.toml"

// EnvFileName is the env file looked up in the working directory.
const EnvFileName = ".env"

// ErrInvalid indicates a setting with an unusable value.
var ErrInvalid = errors.New("invalid config")

// Config holds every taskowner setting.
type Config struct {
	DB        Database  `toml:"db"`
	Server    Server    `toml:"server"`
	Ownership Ownership `toml:"ownership"`
	Log       Log       `toml:"log"`
}

// Database selects and locates the store.
type Database struct {
	Driver   string `toml:"driver"`
	Name     string `toml:"name"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	// Path is the database file when Driver is sqlite.
	Path string `toml:"path"`
	// MaxOpenConns caps the pool. Zero means unlimited.
	MaxOpenConns int `toml:"max-open-conns"`
}

// Server is the HTTP listener.
type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Ownership tunes owner inference.
type Ownership struct {
	Threshold int `toml:"threshold"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
	// File, when set, receives JSON logs with rotation.
	File string `toml:"file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DB: Database{
			Driver:   string(store.DriverPostgres),
			Name:     "webodm_dev",
			User:     "postgres",
			Password: "postgres",
			Host:     "db",
			Port:     5432,
			Path:     "taskowner.db",
		},
		Server: Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Ownership: Ownership{Threshold: 4},
		Log:       Log{Level: "info"},
	}
}

// LoadOptions locates the config sources.
type LoadOptions struct {
	// Dir is searched for taskowner.toml and .env when the explicit paths
	// are empty. Missing files there are ignored.
	Dir string
	// ConfigPath names a TOML file that must exist.
	ConfigPath string
	// EnvFile names a .env file that must exist.
	EnvFile string
	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the layered config and validates it.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	configPath, required := opts.ConfigPath, true
	if internalstrings.IsBlank(configPath) {
		configPath, required = filepath.Join(opts.Dir, FileName), false
	}
	if err := loadConfigFile(&cfg, configPath, required); err != nil {
		return nil, err
	}

	envPath, required := opts.EnvFile, true
	if internalstrings.IsBlank(envPath) {
		envPath, required = filepath.Join(opts.Dir, EnvFileName), false
	}
	dotenv, err := readEnvFile(envPath, required)
	if err != nil {
		return nil, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(key string) (string, bool) {
		if value, ok := lookup(key); ok && !internalstrings.IsBlank(value) {
			return strings.TrimSpace(value), true
		}
		if value, ok := dotenv[key]; ok && !internalstrings.IsBlank(value) {
			return strings.TrimSpace(value), true
		}
		return "", false
	}
	if err := applyEnv(&cfg, env); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadConfigFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("parse config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func readEnvFile(path string, required bool) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}
	return values, nil
}

func applyEnv(cfg *Config, env func(string) (string, bool)) error {
	strs := []struct {
		key  string
		dest *string
	}{
		{"DB_DRIVER", &cfg.DB.Driver},
		{"DB_NAME", &cfg.DB.Name},
		{"DB_USER", &cfg.DB.User},
		{"DB_PASSWORD", &cfg.DB.Password},
		{"DB_HOST", &cfg.DB.Host},
		{"DB_PATH", &cfg.DB.Path},
		{"HOST", &cfg.Server.Host},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FILE", &cfg.Log.File},
	}
	for _, s := range strs {
		if value, ok := env(s.key); ok {
			*s.dest = value
		}
	}

	ints := []struct {
		key  string
		dest *int
	}{
		{"DB_PORT", &cfg.DB.Port},
		{"DB_MAX_OPEN_CONNS", &cfg.DB.MaxOpenConns},
		{"PORT", &cfg.Server.Port},
		{"OWNERSHIP_THRESHOLD", &cfg.Ownership.Threshold},
	}
	for _, i := range ints {
		value, ok := env(i.key)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, i.key, value)
		}
		*i.dest = parsed
	}
	return nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	driver := store.Driver(c.DB.Driver)
	if !driver.IsValid() {
		return validation.FormatInvalidValueError(ErrInvalid, driver, store.ValidDrivers())
	}
	if driver == store.DriverSQLite && internalstrings.IsBlank(c.DB.Path) {
		return fmt.Errorf("%w: db.path is required for sqlite", ErrInvalid)
	}
	if driver == store.DriverPostgres {
		if err := validatePort("db.port", c.DB.Port); err != nil {
			return err
		}
	}
	if c.DB.MaxOpenConns < 0 {
		return fmt.Errorf("%w: db.max-open-conns must not be negative", ErrInvalid)
	}
	if err := validatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if c.Ownership.Threshold < 1 {
		return fmt.Errorf("%w: ownership.threshold must be at least 1, got %d", ErrInvalid, c.Ownership.Threshold)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	return nil
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: %s out of range: %d", ErrInvalid, name, port)
	}
	return nil
}

// Driver returns the configured store driver.
func (c *Config) Driver() store.Driver {
	return store.Driver(c.DB.Driver)
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.Driver() == store.DriverSQLite {
		return c.DB.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DB.User, c.DB.Password),
		Host:   net.JoinHostPort(c.DB.Host, strconv.Itoa(c.DB.Port)),
		Path:   "/" + c.DB.Name,
	}
	return u.String()
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// StoreOptions returns the options for opening the configured store.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:       c.Driver(),
		DSN:          c.DSN(),
		MaxOpenConns: c.DB.MaxOpenConns,
	}
}
