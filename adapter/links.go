package adapter

import (
	"strings"

	"github.com/petal-labs/toolgate/mcp"
)

// Link ties a wrapped name back to the remote tool and server it came
// from. Links are derived per session and never persisted.
type Link struct {
	OriginalTool mcp.Tool
	ServerName   string
	WrappedName  string
}

// FindLink returns the link matching a wrapped name, if any.
func FindLink(links []Link, wrappedName string) (Link, bool) {
	for _, link := range links {
		if link.WrappedName == wrappedName {
			return link, true
		}
	}
	return Link{}, false
}

// OriginalToolName recovers the remote tool name from a wrapped name by
// stripping the sanitized prefix_server_ segment. It reports false when
// the wrapped name does not start with that exact segment.
func OriginalToolName(wrappedName, serverName, prefix string) (string, bool) {
	segment := sanitizeName(prefix+"_"+serverName) + "_"
	if !strings.HasPrefix(wrappedName, segment) {
		return "", false
	}
	return wrappedName[len(segment):], true
}
