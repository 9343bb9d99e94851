package config

import (
	"errors"
	"testing"
)

func TestLoadDataSource(t *testing.T) {
	var tests = []struct {
		name     string
		filename string
		want     DataSource
		errIsNil bool
	}{
		{"Valid config",
			"./testdata/valid_datasource.json",
			DataSource{
				Host:       "db.internal",
				Port:       5432,
				DBName:     "warehouse",
				Username:   "extractor",
				Password:   "s3cret",
				SSLEnabled: true,
			},
			true},
		{"Unknown keys ignored",
			"./testdata/unknown_keys_datasource.json",
			DataSource{
				Host:   "db.internal",
				Port:   5432,
				DBName: "warehouse",
			},
			true},
		{"Malformed json", "./testdata/invalid_datasource.json", DataSource{}, false},
		{"File not found", "./testdata/no_such_file", DataSource{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadDataSource(tt.filename)
			if got != tt.want {
				t.Errorf("\ngot %+v, wanted %+v", got, tt.want)
			}
			if (err == nil) != tt.errIsNil {
				if tt.errIsNil {
					t.Errorf("\ngot unexpected error: %v", err)
				} else {
					t.Errorf("\nexpected an error, did not receive one")
				}
			}
			if err != nil && !errors.Is(err, ErrConfigMissing) {
				t.Errorf("\nerr = %v, want errors.Is(err, ErrConfigMissing)", err)
			}
		})
	}
}

func TestConnString(t *testing.T) {
	var tests = []struct {
		name string
		ds   DataSource
		want string
	}{
		{"ssl disabled",
			DataSource{Host: "h", Port: 5432, DBName: "d", Username: "u", Password: "p", SSLEnabled: false},
			"host=h port=5432 dbname=d user=u password=p sslmode=disable"},
		{"ssl enabled",
			DataSource{Host: "h", Port: 5432, DBName: "d", Username: "u", Password: "p", SSLEnabled: true},
			"host=h port=5432 dbname=d user=u password=p sslmode=require"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ds.ConnString(); got != tt.want {
				t.Errorf("\ngot %q, wanted %q", got, tt.want)
			}
		})
	}
}
