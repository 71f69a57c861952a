package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	registryVersion    = "1.0"
	defaultRegistryDir = "toolgate"
	defaultRegistryDB  = "registry.json"
)

// Backend abstracts registry persistence. The registry always reads and
// writes the full set of definitions; no backend does partial updates.
type Backend interface {
	Load() ([]ServerDefinition, error)
	Save(defs []ServerDefinition) error
	Path() string
}

type registryDocument struct {
	Version string             `json:"version"`
	Servers []ServerDefinition `json:"servers"`
}

// FileBackend persists the registry in a single JSON file.
type FileBackend struct {
	path string
}

// NewFileBackend creates a file backend at the given path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// NewDefaultFileBackend creates a file backend at the per-user default
// path, e.g. ~/.config/toolgate/mcp/registry.json.
func NewDefaultFileBackend() (*FileBackend, error) {
	path, err := DefaultRegistryPath()
	if err != nil {
		return nil, err
	}
	return NewFileBackend(path), nil
}

// DefaultRegistryPath returns the default registry file path under the
// per-user config directory.
func DefaultRegistryPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("catalog: resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, defaultRegistryDir, "mcp", defaultRegistryDB), nil
}

// Path returns the backing file path.
func (b *FileBackend) Path() string {
	if b == nil {
		return ""
	}
	return b.path
}

// Load reads all definitions from the backing file. A missing file or an
// unparseable body yields an empty list, not an error: first-run and
// corrupted-file cases both mean "no servers yet".
func (b *FileBackend) Load() ([]ServerDefinition, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return []ServerDefinition{}, nil
	}
	if len(data) == 0 {
		return []ServerDefinition{}, nil
	}

	var doc registryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return []ServerDefinition{}, nil
	}
	return doc.Servers, nil
}

// Save writes the full definition set atomically: temp file in the target
// directory, then rename.
func (b *FileBackend) Save(defs []ServerDefinition) error {
	doc := registryDocument{
		Version: registryVersion,
		Servers: defs,
	}
	if doc.Servers == nil {
		doc.Servers = []ServerDefinition{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: encode registry: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(b.path), 0o750); err != nil {
		return fmt.Errorf("catalog: create registry dir: %w", err)
	}

	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("catalog: write temp registry file: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("catalog: replace registry file: %w", err)
	}
	return nil
}

var _ Backend = (*FileBackend)(nil)
