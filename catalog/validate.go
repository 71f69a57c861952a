package catalog

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/petal-labs/toolgate/mcp"
)

const maxNameLength = 64

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateDefinition checks a server definition against the shared catalog
// rules. Every failure is a *mcp.ProtocolError with CodeInvalidParams and
// enough field context to be actionable.
func ValidateDefinition(def ServerDefinition) error {
	if def.Name == "" {
		return mcp.NewProtocolError(mcp.CodeInvalidParams, "server name is required")
	}
	if len(def.Name) > maxNameLength {
		return mcp.NewProtocolError(mcp.CodeInvalidParams,
			"server %q: name exceeds %d characters", def.Name, maxNameLength)
	}
	if !namePattern.MatchString(def.Name) {
		return mcp.NewProtocolError(mcp.CodeInvalidParams,
			"server %q: name must match [A-Za-z0-9_-]", def.Name)
	}

	switch def.Transport {
	case TransportStdio:
		if def.HTTP != nil {
			return mcp.NewProtocolError(mcp.CodeInvalidParams,
				"server %q: stdio transport must not carry an http block", def.Name)
		}
		if def.Stdio == nil {
			return mcp.NewProtocolError(mcp.CodeInvalidParams,
				"server %q: stdio transport requires a stdio block", def.Name)
		}
		if strings.TrimSpace(def.Stdio.Command) == "" {
			return mcp.NewProtocolError(mcp.CodeInvalidParams,
				"server %q: field stdio.command is required", def.Name)
		}

	case TransportHTTP:
		if def.Stdio != nil {
			return mcp.NewProtocolError(mcp.CodeInvalidParams,
				"server %q: http transport must not carry a stdio block", def.Name)
		}
		if def.HTTP == nil {
			return mcp.NewProtocolError(mcp.CodeInvalidParams,
				"server %q: http transport requires an http block", def.Name)
		}
		if err := validateURL(def.Name, def.HTTP.URL); err != nil {
			return err
		}

	default:
		return mcp.NewProtocolError(mcp.CodeInvalidParams,
			"server %q: transport must be %q or %q", def.Name, TransportStdio, TransportHTTP)
	}

	return nil
}

func validateURL(serverName, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return mcp.NewProtocolError(mcp.CodeInvalidParams,
			"server %q: field http.url is required", serverName)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return mcp.NewProtocolError(mcp.CodeInvalidParams,
			"server %q: field http.url is not a valid URL: %v", serverName, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return mcp.NewProtocolError(mcp.CodeInvalidParams,
			"server %q: field http.url must be absolute with scheme and host", serverName)
	}
	return nil
}
