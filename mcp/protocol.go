package mcp

import "context"

// Protocol identity defaults used when opening a session.
const (
	ProtocolVersion      = "2025-06-18"
	DefaultClientName    = "toolgate"
	DefaultClientVersion = "dev"
)

// ClientInfo identifies the host when opening an MCP session.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ServerInfo describes the connected MCP server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeParams is sent in the MCP initialize request.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
}

// InitializeResult is returned by the MCP initialize request.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

// Tool describes one tool advertised by a server via tools/list.
// InputSchema is a loosely-typed JSON-Schema subset interpreted by the
// adapter package.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ToolsListResult is returned by the MCP tools/list request.
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

// ToolsCallParams is sent in the MCP tools/call request.
type ToolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ResourceContents is the payload of a resource content block.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ContentBlock is one item of a heterogeneous tools/call result.
// Type is "text", "image", "resource", or an unrecognized value.
type ContentBlock struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Data     string            `json:"data,omitempty"`
	MimeType string            `json:"mimeType,omitempty"`
	Resource *ResourceContents `json:"resource,omitempty"`
}

// ToolsCallResult is returned by the MCP tools/call request. IsError marks
// an application-level failure reported by the tool itself.
type ToolsCallResult struct {
	Content []ContentBlock `json:"content,omitempty"`
	IsError bool           `json:"isError,omitempty"`
}

// RemoteToolClient is the transport capability this layer consumes. A
// concrete client owns one connection to one server; implementations live
// with the host's transport code.
type RemoteToolClient interface {
	Initialize(ctx context.Context, params InitializeParams) (InitializeResult, error)
	ListTools(ctx context.Context) (ToolsListResult, error)
	CallTool(ctx context.Context, params ToolsCallParams) (ToolsCallResult, error)
	IsConnected() bool
	Close(ctx context.Context) error
}
