package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DBConfig names one database connection for the describe subcommand.
type DBConfig struct {
	Type         string `yaml:"type" json:"type"`
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	DatabaseName string `yaml:"database_name" json:"database_name"`
	DSN          string `yaml:"dsn" json:"dsn"` // optional explicit DSN
}

// DialectsConfig is the top-level shape of dialects.yaml, the optional
// config file for `dbslice describe`. It is unrelated to dataSource.json
// (see datasource.go), which configures the slice-extraction engine
// itself and is always postgres.
type DialectsConfig struct {
	Database DBConfig `yaml:"database" json:"database"`
}

// LoadDialectsFile loads YAML config for the describe subcommand from
// path and validates it against the dialect it names.
func LoadDialectsFile(path string) (DialectsConfig, error) {
	var cfg DialectsConfig
	f, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w: %w", path, ErrConfigMissing, err)
	}
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w: %w", path, ErrConfigMissing, err)
	}
	return cfg, nil
}

// dsnBuilder produces a driver-specific DSN from a validated DBConfig.
// Registered per normalized driver name in dsnBuilders below, so adding
// a dialect is adding one table entry rather than a switch case.
type dsnBuilder struct {
	// required holds one presence check per DBConfig field build needs;
	// missing[i] is the dialects.yaml key BuildDriverAndDSN reports when
	// required[i] fails.
	required []func(DBConfig) bool
	missing  []string
	build    func(DBConfig) string
}

var dsnBuilders = map[string]dsnBuilder{
	"postgres": {
		required: []func(DBConfig) bool{hasHost, hasUsername, hasDatabaseName},
		missing:  []string{"host", "username", "database_name"},
		build: func(db DBConfig) string {
			return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
				db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
		},
	},
	"mysql": {
		required: []func(DBConfig) bool{hasHost, hasUsername, hasDatabaseName},
		missing:  []string{"host", "username", "database_name"},
		build: func(db DBConfig) string {
			return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
				db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
		},
	},
	"sqlite": {
		required: []func(DBConfig) bool{hasDatabaseName},
		missing:  []string{"database_name (sqlite needs a file path here)"},
		build: func(db DBConfig) string {
			return fmt.Sprintf("file:%s?mode=ro", db.DatabaseName)
		},
	},
	"sqlserver": {
		required: []func(DBConfig) bool{hasHost, hasUsername, hasDatabaseName},
		missing:  []string{"host", "username", "database_name"},
		build: func(db DBConfig) string {
			return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
				db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
		},
	},
	"godror": {
		required: []func(DBConfig) bool{hasHost, hasUsername, hasDatabaseName},
		missing:  []string{"host", "username", "database_name"},
		build: func(db DBConfig) string {
			return fmt.Sprintf("%s/%s@%s:%d/%s",
				db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
		},
	},
}

func hasHost(db DBConfig) bool         { return db.Host != "" }
func hasUsername(db DBConfig) bool     { return db.Username != "" }
func hasDatabaseName(db DBConfig) bool { return db.DatabaseName != "" }

// NormalizeDriver maps common aliases to the canonical driver names
// dsnBuilders and internal/source's registry both key on.
func NormalizeDriver(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "postgresql", "pg", "postgres":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "mssql", "sqlserver":
		return "sqlserver"
	case "godror", "oracle":
		return "godror"
	default:
		return strings.ToLower(d)
	}
}

// BuildDriverAndDSN produces a driver name and DSN string for db, or an
// error wrapping ErrConfigMissing when db.Type is unsupported or a
// field its builder needs is empty. An explicit db.DSN bypasses all of
// this and is passed through as-is.
func BuildDriverAndDSN(db DBConfig) (driver string, dsn string, err error) {
	driver = NormalizeDriver(db.Type)

	if db.DSN != "" {
		return driver, db.DSN, nil
	}

	b, ok := dsnBuilders[driver]
	if !ok {
		return "", "", fmt.Errorf("%w: unsupported database type %q", ErrConfigMissing, db.Type)
	}
	for i, ok := range b.required {
		if !ok(db) {
			return "", "", fmt.Errorf("%w: %s config is missing %s", ErrConfigMissing, driver, b.missing[i])
		}
	}
	return driver, b.build(db), nil
}
