package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/koapa/koapa"
	"github.com/koapa/koapa/pkg/engine"
)

const (
	maxWalkDepth = 25
)

// Config represents the koapa configuration from koapa.yaml.
type Config struct {
	// Database configuration
	Database DatabaseConfig `mapstructure:"database" json:"database"`

	// HTTP host configuration
	Server ServerConfig `mapstructure:"server" json:"server"`

	// Where clause configuration
	Where WhereConfig `mapstructure:"where" json:"where"`

	// Tables declares the columns a where callback may reference, per table.
	// Keys arrive lowercased; table names are matched case-insensitively.
	Tables map[string][]string `mapstructure:"tables" json:"tables,omitempty"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" json:"driver"`
	URL      string `mapstructure:"url" json:"url,omitempty"`
	Path     string `mapstructure:"path" json:"path,omitempty"`
	Host     string `mapstructure:"host" json:"host,omitempty"`
	Port     int    `mapstructure:"port" json:"port"`
	Name     string `mapstructure:"name" json:"name,omitempty"`
	User     string `mapstructure:"user" json:"user,omitempty"`
	Password string `mapstructure:"password" json:"password,omitempty"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode"`
}

// ServerConfig holds settings for the serve command.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" json:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
}

// WhereConfig holds where clause settings.
type WhereConfig struct {
	// DefaultColumns are offered for tables with no entry in Tables.
	DefaultColumns []string `mapstructure:"default_columns" json:"default_columns"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix("KOAPA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.driver", engine.DriverSQLite)
	v.SetDefault("database.url", "")
	v.SetDefault("database.path", engine.DefaultSQLiteFile)
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")

	// Server defaults
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	// Where defaults
	v.SetDefault("where.default_columns", koapa.DefaultColumns)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for koapa.yaml or koapa.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"koapa.yaml", "koapa.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Check for repo boundary (.git file or directory)
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}

// DSN returns the connection string for the configured driver.
// If database.url is set, it's returned directly. SQLite falls back to
// database.path; the Postgres drivers build a URL from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	switch db.Driver {
	case "", engine.DriverSQLite:
		if db.Path == "" {
			return engine.DefaultSQLiteFile, nil
		}
		return db.Path, nil
	case engine.DriverPgx, engine.DriverPostgres:
	default:
		return "", fmt.Errorf("database.driver %q is not supported", db.Driver)
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// EngineConfig returns the settings engine.Open needs.
func (c *Config) EngineConfig() (engine.Config, error) {
	dsn, err := c.DSN()
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{Driver: c.Database.Driver, DSN: dsn}, nil
}

// BuilderOptions returns the column declarations of the config as builder
// options. Each call returns fresh options, so every builder gets its own
// column registry.
func (c *Config) BuilderOptions() []koapa.Option {
	opts := make([]koapa.Option, 0, len(c.Tables)+1)
	if len(c.Where.DefaultColumns) > 0 {
		opts = append(opts, koapa.WithDefaultColumns(c.Where.DefaultColumns...))
	}
	for table, cols := range c.Tables {
		opts = append(opts, koapa.WithTableColumns(table, cols...))
	}
	return opts
}
