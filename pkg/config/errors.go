package config

import "errors"

// ErrConfigMissing marks the "config file missing or malformed" fatal
// category from spec §7: dataSource.json or dialects.yaml absent,
// unreadable, or failing to parse, and a dialects.yaml entry missing a
// field its driver needs. Callers compare against it with errors.Is
// rather than matching an error string.
var ErrConfigMissing = errors.New("config missing or malformed")
