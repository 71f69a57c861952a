package catalog

// Transport values for reaching an MCP server.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// StdioConfig describes a local subprocess transport.
type StdioConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// HTTPAuth describes how to authenticate against an HTTP server. TokenEnv
// names the environment variable holding the credential; the credential
// itself is never stored in the catalog.
type HTTPAuth struct {
	Type     string `json:"type,omitempty"`
	TokenEnv string `json:"tokenEnv,omitempty"`
}

// HTTPConfig describes a network endpoint transport.
type HTTPConfig struct {
	URL  string    `json:"url"`
	Auth *HTTPAuth `json:"auth,omitempty"`
}

// ServerDefinition is one catalog entry: a named, validated description of
// how to reach one MCP server. Exactly one of Stdio/HTTP is populated,
// matching Transport.
type ServerDefinition struct {
	Name        string         `json:"name"`
	Transport   string         `json:"transport"`
	Stdio       *StdioConfig   `json:"stdio,omitempty"`
	HTTP        *HTTPConfig    `json:"http,omitempty"`
	Description string         `json:"description,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// IsEnabled reports whether the server is enabled. An absent field counts
// as enabled.
func (d ServerDefinition) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Clone returns a deep copy of the definition.
func (d ServerDefinition) Clone() ServerDefinition {
	out := d
	if d.Stdio != nil {
		stdio := *d.Stdio
		if d.Stdio.Args != nil {
			stdio.Args = append([]string(nil), d.Stdio.Args...)
		}
		out.Stdio = &stdio
	}
	if d.HTTP != nil {
		httpCfg := *d.HTTP
		if d.HTTP.Auth != nil {
			auth := *d.HTTP.Auth
			httpCfg.Auth = &auth
		}
		out.HTTP = &httpCfg
	}
	if d.Enabled != nil {
		enabled := *d.Enabled
		out.Enabled = &enabled
	}
	if d.Metadata != nil {
		out.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func cloneDefinitions(in []ServerDefinition) []ServerDefinition {
	out := make([]ServerDefinition, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
