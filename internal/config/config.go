// Package config loads optional analyzer defaults from a TOML file. A
// boolean flag given on the command line turns its setting on whatever the
// file says, but cannot turn off a setting the file enables; -v overrides
// the file's log level; batch size and allocation limit come only from the
// file. The file exists so batch setups don't have to repeat themselves.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// File is the on-disk configuration shape.
type File struct {
	// LogLevel is "minimal", "necessary" or "additional".
	LogLevel string `toml:"log_level"`

	// BatchSize overrides the mask decomposition batch size.
	BatchSize int `toml:"batch_size"`

	// AllocationLimitMB caps the subset mask buffer, in MiB.
	AllocationLimitMB int64 `toml:"allocation_limit_mb"`

	// NoPruning disables per-state individuals pruning.
	NoPruning bool `toml:"no_prunning"`

	// ContinueOnConflict keeps expanding after a conflict is found.
	ContinueOnConflict bool `toml:"continue_on_conflict"`
}

// DefaultPath is where Load looks when no explicit path is given.
const DefaultPath = "recall.toml"

// Load reads a config file. A missing file at the default path is not an
// error; a missing file at an explicit path is.
func Load(path string) (File, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return File{}, nil
		}
		return File{}, fmt.Errorf("reading config file: %w", err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return f, nil
}
