package catalog

import "testing"

func TestParseDataType(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want DataType
	}{
		{"integer", "integer", Integer},
		{"bigint", "bigint", Bigint},
		{"numeric", "numeric", Numeric},
		{"boolean", "boolean", Boolean},
		{"varchar", "character varying", CharacterVarying},
		{"text", "text", Text},
		{"jsonb", "jsonb", JSONB},
		{"timestamp", "timestamp without time zone", TimestampNoTZ},
		{"date", "date", Date},
		{"unknown falls back to Other", "tsvector", Other},
		{"empty string falls back to Other", "", Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDataType(tt.in); got != tt.want {
				t.Errorf("ParseDataType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDataTypeNeedsQuoting(t *testing.T) {
	tests := []struct {
		name string
		in   DataType
		want bool
	}{
		{"integer unquoted", Integer, false},
		{"bigint unquoted", Bigint, false},
		{"numeric unquoted", Numeric, false},
		{"boolean unquoted", Boolean, false},
		{"varchar quoted", CharacterVarying, true},
		{"text quoted", Text, true},
		{"jsonb quoted", JSONB, true},
		{"timestamp quoted", TimestampNoTZ, true},
		{"date quoted", Date, true},
		{"other quoted", Other, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.NeedsQuoting(); got != tt.want {
				t.Errorf("%v.NeedsQuoting() = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
