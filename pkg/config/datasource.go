package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DataSource is the dataSource.json shape the slice-extraction engine
// reads to connect to the source PostgreSQL database (spec §6.2).
// Unknown keys are silently ignored, which is json.Unmarshal's default
// behavior for a struct target.
type DataSource struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	DBName     string `json:"dbName"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	SSLEnabled bool   `json:"sslEnabled"`
}

// LoadDataSource reads and parses dataSource.json from path.
func LoadDataSource(path string) (DataSource, error) {
	var ds DataSource
	raw, err := os.ReadFile(path)
	if err != nil {
		return ds, fmt.Errorf("read %s: %w: %w", path, ErrConfigMissing, err)
	}
	if err := json.Unmarshal(raw, &ds); err != nil {
		return ds, fmt.Errorf("parse %s: %w: %w", path, ErrConfigMissing, err)
	}
	return ds, nil
}

// ConnString builds a lib/pq-compatible connection string.
func (d DataSource) ConnString() string {
	sslmode := "disable"
	if d.SSLEnabled {
		sslmode = "require"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.DBName, d.Username, d.Password, sslmode)
}
