package catalog

import (
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/toolgate/mcp"
)

// LoadStandaloneConfig reads a standalone catalog file of the shape
// {"version"?: string, "servers": [...]}. The file must exist and parse;
// individual servers that fail validation are dropped without affecting
// the rest, preserving the original relative order.
func LoadStandaloneConfig(path string) ([]ServerDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mcp.NewProtocolError(mcp.CodeInvalidRequest,
			"catalog file %s: %v", path, err)
	}

	var doc struct {
		Version string          `json:"version"`
		Servers json.RawMessage `json:"servers"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, mcp.NewProtocolError(mcp.CodeParseError,
			"catalog file %s: %v", path, err)
	}
	if len(doc.Servers) == 0 {
		return nil, mcp.NewProtocolError(mcp.CodeInvalidParams,
			"catalog file %s: missing servers field", path)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(doc.Servers, &entries); err != nil {
		return nil, mcp.NewProtocolError(mcp.CodeInvalidParams,
			"catalog file %s: servers must be an array", path)
	}

	defs := make([]ServerDefinition, 0, len(entries))
	for _, entry := range entries {
		var def ServerDefinition
		if err := json.Unmarshal(entry, &def); err != nil {
			continue
		}
		if err := ValidateDefinition(def); err != nil {
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// hostConfig is the slice of the host project config this layer reads.
// Fields outside the mcp section belong to the host and are ignored.
type hostConfig struct {
	MCP *hostMCPSection `yaml:"mcp"`
}

type hostMCPSection struct {
	Enabled *bool             `yaml:"enabled"`
	Servers []hostServerEntry `yaml:"servers"`
}

// hostServerEntry uses the flattened shape of the host config: transport
// fields are inlined instead of nested under stdio/http blocks.
type hostServerEntry struct {
	Name        string         `yaml:"name"`
	Transport   string         `yaml:"transport"`
	Command     string         `yaml:"command"`
	Args        []string       `yaml:"args"`
	URL         string         `yaml:"url"`
	Auth        *hostAuthEntry `yaml:"auth"`
	Description string         `yaml:"description"`
	Enabled     *bool          `yaml:"enabled"`
}

type hostAuthEntry struct {
	Type     string `yaml:"type"`
	TokenEnv string `yaml:"token_env"`
}

// LoadHostConfig reads the host project config and extracts the optional
// mcp.servers list, normalizing the flattened entries into
// ServerDefinition shape. A config without an mcp section yields an empty
// list, not an error. Per-entry validation failures drop the entry.
func LoadHostConfig(path string) ([]ServerDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mcp.NewProtocolError(mcp.CodeInvalidRequest,
			"host config %s: %v", path, err)
	}

	var cfg hostConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, mcp.NewProtocolError(mcp.CodeParseError,
			"host config %s: %v", path, err)
	}
	if cfg.MCP == nil {
		return []ServerDefinition{}, nil
	}

	defs := make([]ServerDefinition, 0, len(cfg.MCP.Servers))
	for _, entry := range cfg.MCP.Servers {
		def := normalizeHostEntry(entry)
		if err := ValidateDefinition(def); err != nil {
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func normalizeHostEntry(entry hostServerEntry) ServerDefinition {
	def := ServerDefinition{
		Name:        entry.Name,
		Transport:   entry.Transport,
		Description: entry.Description,
		Enabled:     entry.Enabled,
	}
	switch entry.Transport {
	case TransportStdio:
		def.Stdio = &StdioConfig{
			Command: entry.Command,
			Args:    entry.Args,
		}
	case TransportHTTP:
		def.HTTP = &HTTPConfig{URL: entry.URL}
		if entry.Auth != nil {
			def.HTTP.Auth = &HTTPAuth{
				Type:     entry.Auth.Type,
				TokenEnv: entry.Auth.TokenEnv,
			}
		}
	}
	return def
}

// MergeDefinitions combines two ordered definition lists by name. Every
// base entry is kept in place; an override sharing a base name fully
// replaces it (no field-level merge). Overrides without a base counterpart
// are appended in their own order.
func MergeDefinitions(base, overrides []ServerDefinition) []ServerDefinition {
	byName := make(map[string]ServerDefinition, len(overrides))
	for _, def := range overrides {
		byName[def.Name] = def
	}

	merged := make([]ServerDefinition, 0, len(base)+len(overrides))
	seen := make(map[string]struct{}, len(base))
	for _, def := range base {
		seen[def.Name] = struct{}{}
		if override, ok := byName[def.Name]; ok {
			merged = append(merged, override)
			continue
		}
		merged = append(merged, def)
	}
	for _, def := range overrides {
		if _, ok := seen[def.Name]; ok {
			continue
		}
		merged = append(merged, def)
	}
	return merged
}
