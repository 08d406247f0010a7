package sql

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stratadb/strata/dialect"
)

// Config holds the settings for connecting to a database.
type Config struct {
	// Host is the hostname for network-based databases.
	Host string `yaml:"host"`
	// Port is the port number. Zero selects the dialect default.
	Port int `yaml:"port"`
	// Database is the database name.
	Database string `yaml:"database"`
	// Username and Password authenticate the connection.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Path is the file path for file-based databases (SQLite).
	// Use ":memory:" for an in-memory database.
	Path string `yaml:"path"`
	// PoolSize caps the open connections. Zero keeps a small default.
	PoolSize int `yaml:"pool_size"`
	// Params contains additional driver-specific DSN parameters.
	Params map[string]string `yaml:"params"`
}

// Default pool tuning applied on open.
const (
	defaultPoolSize    = 5
	defaultMaxIdle     = 2
	defaultMaxLifetime = 10 * time.Minute
)

// ConfigFromFile reads a YAML config file.
func ConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("dialect/sql: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("dialect/sql: parse config: %w", err)
	}
	return cfg, nil
}

// DSN builds the driver source string for the given dialect.
func (c Config) DSN(d string) (string, error) {
	switch d {
	case dialect.MySQL:
		return c.mysqlDSN(), nil
	case dialect.Postgres:
		return c.postgresDSN(), nil
	case dialect.SQLite:
		if c.Path == "" {
			return "", fmt.Errorf("dialect/sql: sqlite config requires a path")
		}
		return c.Path, nil
	default:
		return "", fmt.Errorf("dialect/sql: unsupported dialect %q", d)
	}
}

func (c Config) mysqlDSN() string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	var b strings.Builder
	if c.Username != "" {
		b.WriteString(c.Username)
		if c.Password != "" {
			b.WriteString(":" + c.Password)
		}
		b.WriteString("@")
	}
	fmt.Fprintf(&b, "tcp(%s)/%s", net.JoinHostPort(c.Host, strconv.Itoa(port)), c.Database)
	params := []string{"parseTime=true"}
	for _, k := range sortedKeys(c.Params) {
		params = append(params, k+"="+c.Params[k])
	}
	b.WriteString("?" + strings.Join(params, "&"))
	return b.String()
}

func (c Config) postgresDSN() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	kv := []string{
		"host=" + c.Host,
		"port=" + strconv.Itoa(port),
		"dbname=" + c.Database,
	}
	if c.Username != "" {
		kv = append(kv, "user="+c.Username)
	}
	if c.Password != "" {
		kv = append(kv, "password="+c.Password)
	}
	for _, k := range sortedKeys(c.Params) {
		kv = append(kv, k+"="+c.Params[k])
	}
	return strings.Join(kv, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
