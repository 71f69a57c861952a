package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/toolgate/mcp"
)

// Defaults for wrapped-tool naming and invocation deadlines.
const (
	DefaultPrefix  = "mcp"
	DefaultTimeout = 60 * time.Second
)

// LocalTool is the host-facing form of one remote tool: a stable name, a
// translated parameter schema, and an Invoke function that runs the remote
// call under the adapter's timeout discipline.
type LocalTool struct {
	Name        string
	Description string
	Params      ParamSpec
	Invoke      func(ctx context.Context, args map[string]any) (string, error)
}

// Adapter wraps remote MCP tools into LocalTools.
type Adapter struct {
	prefix     string
	timeout    time.Duration
	observer   Observer
	clientInfo mcp.ClientInfo
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithPrefix overrides the wrapped-name prefix.
func WithPrefix(prefix string) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(prefix) != "" {
			a.prefix = prefix
		}
	}
}

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(a *Adapter) {
		if timeout > 0 {
			a.timeout = timeout
		}
	}
}

// WithObserver installs an invocation observer.
func WithObserver(observer Observer) Option {
	return func(a *Adapter) {
		if observer != nil {
			a.observer = observer
		}
	}
}

// WithClientInfo overrides the identity sent during session bootstrap.
func WithClientInfo(info mcp.ClientInfo) Option {
	return func(a *Adapter) {
		if strings.TrimSpace(info.Name) != "" {
			a.clientInfo = info
		}
	}
}

// New builds an Adapter with the given options.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		prefix:   DefaultPrefix,
		timeout:  DefaultTimeout,
		observer: noopObserver{},
		clientInfo: mcp.ClientInfo{
			Name:    mcp.DefaultClientName,
			Version: mcp.DefaultClientVersion,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Timeout returns the configured per-invocation timeout.
func (a *Adapter) Timeout() time.Duration {
	return a.timeout
}

// WrapName derives the local name for a remote tool. The result contains
// only [A-Za-z0-9_] and is stable for a given prefix/server/tool triple.
func (a *Adapter) WrapName(serverName, toolName string) string {
	return sanitizeName(a.prefix + "_" + serverName + "_" + toolName)
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}

// AdaptTool wraps one remote tool. The returned LocalTool validates
// arguments against the translated schema before dispatching, and the Link
// records the reverse mapping for the session.
func (a *Adapter) AdaptTool(serverName string, client mcp.RemoteToolClient, tool mcp.Tool) (LocalTool, Link) {
	wrappedName := a.WrapName(serverName, tool.Name)
	params := TranslateSchema(tool.InputSchema)

	local := LocalTool{
		Name:        wrappedName,
		Description: tool.Description,
		Params:      params,
		Invoke: func(ctx context.Context, args map[string]any) (string, error) {
			if err := ValidateArgs(params, args); err != nil {
				return "", err
			}
			return a.invoke(ctx, client, serverName, tool.Name, wrappedName, args)
		},
	}
	link := Link{
		OriginalTool: tool,
		ServerName:   serverName,
		WrappedName:  wrappedName,
	}
	return local, link
}

// AdaptTools wraps every tool in the list. Each tool is adapted
// independently; one tool's shape never affects another's.
func (a *Adapter) AdaptTools(serverName string, client mcp.RemoteToolClient, tools []mcp.Tool) ([]LocalTool, []Link) {
	locals := make([]LocalTool, 0, len(tools))
	links := make([]Link, 0, len(tools))
	for _, tool := range tools {
		local, link := a.AdaptTool(serverName, client, tool)
		locals = append(locals, local)
		links = append(links, link)
	}
	return locals, links
}

// Connect bootstraps a session against one server and adapts everything it
// advertises. Initialization is skipped when the client already reports a
// live connection.
func (a *Adapter) Connect(ctx context.Context, serverName string, client mcp.RemoteToolClient) ([]LocalTool, []Link, error) {
	if !client.IsConnected() {
		_, err := client.Initialize(ctx, mcp.InitializeParams{
			ProtocolVersion: mcp.ProtocolVersion,
			ClientInfo:      a.clientInfo,
		})
		if err != nil {
			return nil, nil, &mcp.ProtocolError{
				Code:    mcp.CodeInitializationError,
				Message: fmt.Sprintf("initialize server %q: %v", serverName, err),
				Cause:   err,
			}
		}
	}

	listed, err := client.ListTools(ctx)
	if err != nil {
		return nil, nil, mcp.WrapInternal(err)
	}

	locals, links := a.AdaptTools(serverName, client, listed.Tools)
	return locals, links, nil
}

type callOutcome struct {
	result mcp.ToolsCallResult
	err    error
}

func (a *Adapter) invoke(ctx context.Context, client mcp.RemoteToolClient, serverName, toolName, wrappedName string, args map[string]any) (string, error) {
	observation := InvokeObservation{
		RequestID:   uuid.NewString(),
		ServerName:  serverName,
		Tool:        toolName,
		WrappedName: wrappedName,
	}
	start := time.Now()

	text, err := a.callWithTimeout(ctx, client, toolName, args)

	observation.DurationMS = time.Since(start).Milliseconds()
	observation.Success = err == nil
	if err != nil {
		observation.ErrorCode = mcp.CodeName(mcp.ErrorCode(err))
		var timeoutErr *mcp.TimeoutError
		observation.TimedOut = errors.As(err, &timeoutErr)
	}
	a.observer.ObserveInvoke(observation)

	return text, err
}

// callWithTimeout races the remote call against the adapter's timeout.
// Exactly one of {result, timeout, cancellation} is observed; the outcome
// channel is buffered so an abandoned call's goroutine never blocks, and
// the timer is stopped on every exit path.
func (a *Adapter) callWithTimeout(ctx context.Context, client mcp.RemoteToolClient, toolName string, args map[string]any) (string, error) {
	outcome := make(chan callOutcome, 1)
	go func() {
		result, err := client.CallTool(ctx, mcp.ToolsCallParams{
			Name:      toolName,
			Arguments: args,
		})
		outcome <- callOutcome{result: result, err: err}
	}()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case out := <-outcome:
		if out.err != nil {
			return "", mcp.WrapInternal(out.err)
		}
		if out.result.IsError {
			return "", remoteApplicationError(toolName, out.result.Content)
		}
		return NormalizeResult(out.result.Content), nil
	case <-timer.C:
		return "", &mcp.TimeoutError{Tool: toolName, Timeout: a.timeout}
	case <-ctx.Done():
		return "", mcp.WrapInternal(ctx.Err())
	}
}

// remoteApplicationError converts an isError result into an error carrying
// the remote-supplied message text.
func remoteApplicationError(toolName string, content []mcp.ContentBlock) error {
	pieces := make([]string, 0, len(content))
	for _, block := range content {
		if block.Type == "text" && block.Text != "" {
			pieces = append(pieces, block.Text)
		}
	}
	message := strings.Join(pieces, "\n")
	if message == "" {
		message = fmt.Sprintf("tool %q reported an error with no message", toolName)
	}
	return mcp.NewProtocolError(mcp.CodeInternalError, "%s", message)
}

// NormalizeResult flattens a heterogeneous result into one string: text
// blocks verbatim, images and resources as bracketed placeholders,
// unrecognized blocks dropped. Non-empty pieces are joined by newlines.
func NormalizeResult(content []mcp.ContentBlock) string {
	pieces := make([]string, 0, len(content))
	for _, block := range content {
		var rendered string
		switch block.Type {
		case "text":
			rendered = block.Text
		case "image":
			rendered = fmt.Sprintf("[Image: %s]", block.MimeType)
		case "resource":
			if block.Resource != nil {
				rendered = fmt.Sprintf("[Resource: %s]", block.Resource.URI)
			}
		}
		if rendered != "" {
			pieces = append(pieces, rendered)
		}
	}
	return strings.Join(pieces, "\n")
}
