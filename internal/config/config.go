package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Database Database `mapstructure:"database"`
	Log      Log      `mapstructure:"log"`
	Export   Export   `mapstructure:"export"`
}

// Database selects the store backend.
type Database struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// Log controls the debug log file. Level "off" disables logging.
type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Export holds defaults for exported documents.
type Export struct {
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"driver":    "database.driver",
	"db":        "database.path",
	"dsn":       "database.dsn",
	"log-level": "log.level",
	"log-file":  "log.file",
	"format":    "export.format",
}

func xdgDir(env string, fallback ...string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, "bucket"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, append(fallback, "bucket")...)...), nil
}

// DefaultPath returns the config file location under XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func defaultLogFile() string {
	dir, err := xdgDir("XDG_STATE_HOME", ".local", "state")
	if err != nil {
		return filepath.Join(os.TempDir(), "bucket.log")
	}
	return filepath.Join(dir, "bucket.log")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("log.level", "off")
	v.SetDefault("log.file", defaultLogFile())
	v.SetDefault("export.format", "json")
}

// writeDefaults creates the config file from defaults alone, so values
// that came from the environment never end up on disk.
func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	d := viper.New()
	setDefaults(d)
	if err := d.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// Load reads the config file at path (or the default location), writing
// a file with default values if none exists. BUCKET_* environment
// variables and any flags set on flags override the file.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, fmt.Errorf("determine config path: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("BUCKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := writeDefaults(path); err != nil {
			return Config{}, err
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// StoreTarget returns the path or DSN the configured driver opens.
func (c Config) StoreTarget() string {
	if c.Database.Driver == "postgres" {
		return c.Database.DSN
	}
	return c.Database.Path
}
