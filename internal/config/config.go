// Package config loads and validates the .codexray/config.json settings
// file. Unlike the ambient configuration style used elsewhere in this
// engine's lineage, the format here is fixed by the external interface
// contract to plain JSON with unknown-field preservation, so no
// third-party config library is used (see DESIGN.md).
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/heefoo/codexray/internal/engineerr"
)

// SchemaVersion is the engine's compiled-in schema version. A persisted
// config whose Version is older produces a storage error at open time
// rather than a silent migration.
const SchemaVersion = 1

const DefaultMaxFileSize = 1048576 // 1 MiB

// Dir is the storage directory name, relative to a project root.
const Dir = ".codexray"

// DBFile is the database file name within Dir.
const DBFile = "codexray.db"

// ConfigFile is the settings file name within Dir.
const ConfigFile = "config.json"

// Config is the typed view of config.json.
type Config struct {
	Version         int      `json:"version"`
	ProjectName     string   `json:"projectName"`
	Languages       []string `json:"languages"`
	Exclude         []string `json:"exclude"`
	Frameworks      []string `json:"frameworks"`
	MaxFileSize     int      `json:"maxFileSize"`
	GitHooksEnabled bool     `json:"gitHooksEnabled"`

	// unknown holds any fields not recognized above, so Save round-trips
	// them unchanged.
	unknown map[string]json.RawMessage `json:"-"`
}

// Default returns a Config with documented defaults applied, for a
// project rooted at the given directory.
func Default(projectRoot string) *Config {
	return &Config{
		Version:         SchemaVersion,
		ProjectName:     filepath.Base(projectRoot),
		Languages:       nil,
		Exclude:         nil,
		Frameworks:      nil,
		MaxFileSize:     DefaultMaxFileSize,
		GitHooksEnabled: false,
	}
}

// Path returns the config file path for a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, ConfigFile)
}

// StorageDir returns the .codexray directory path for a project root.
func StorageDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir)
}

// DBPath returns the database file path for a project root.
func DBPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, DBFile)
}

// Load reads and parses the config file at projectRoot/.codexray/config.json.
// Missing typed fields are filled with documented defaults; unknown fields
// are preserved for Save.
func Load(projectRoot string) (*Config, error) {
	path := Path(projectRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := Default(projectRoot)
	known := map[string]*json.RawMessage{}
	for _, key := range []string{"version", "projectName", "languages", "exclude", "frameworks", "maxFileSize", "gitHooksEnabled"} {
		if v, ok := raw[key]; ok {
			vv := v
			known[key] = &vv
			delete(raw, key)
		}
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.unknown = raw

	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	return cfg, nil
}

// Save writes the config back to disk, merging unknown fields captured at
// Load time back in unchanged.
func (c *Config) Save(projectRoot string) error {
	merged := map[string]json.RawMessage{}
	for k, v := range c.unknown {
		merged[k] = v
	}

	type alias Config
	typedBytes, err := json.Marshal((*alias)(c))
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	var typedMap map[string]json.RawMessage
	if err := json.Unmarshal(typedBytes, &typedMap); err != nil {
		return fmt.Errorf("config: remarshal: %w", err)
	}
	for k, v := range typedMap {
		merged[k] = v
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	dir := StorageDir(projectRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}
	path := Path(projectRoot)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate returns non-fatal warning strings for out-of-range values and
// logs each of them. It never returns an error; callers proceed regardless.
func Validate(c *Config) []string {
	var warnings []string
	if c.MaxFileSize <= 0 {
		warnings = append(warnings, fmt.Sprintf("maxFileSize %d is not positive, using default %d", c.MaxFileSize, DefaultMaxFileSize))
	}
	if c.MaxFileSize > 50*1024*1024 {
		warnings = append(warnings, fmt.Sprintf("maxFileSize %d is unusually large (>50MiB)", c.MaxFileSize))
	}
	if c.Version > SchemaVersion {
		warnings = append(warnings, fmt.Sprintf("config version %d is newer than engine schema version %d", c.Version, SchemaVersion))
	}
	for _, warning := range warnings {
		log.Printf("config: %s", warning)
	}
	return warnings
}

// CheckSchema returns engineerr.ErrStaleSchema if the config's recorded
// version predates the engine's compiled schema version. Called once at
// store-open time so a too-old project directory fails fast instead of
// silently drifting.
func CheckSchema(c *Config) error {
	if c.Version < SchemaVersion {
		return engineerr.ErrStaleSchema
	}
	return nil
}

// Initialized reports whether a project root already has a storage
// directory.
func Initialized(projectRoot string) bool {
	info, err := os.Stat(StorageDir(projectRoot))
	return err == nil && info.IsDir()
}
