package adapter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/petal-labs/toolgate/mcp"
)

// stubClient is a scriptable RemoteToolClient for adapter tests.
type stubClient struct {
	mu sync.Mutex

	connected  bool
	initErr    error
	initParams mcp.InitializeParams
	initCalls  int

	tools   []mcp.Tool
	listErr error

	callFn    func(ctx context.Context, params mcp.ToolsCallParams) (mcp.ToolsCallResult, error)
	callCalls []mcp.ToolsCallParams
}

func (c *stubClient) Initialize(_ context.Context, params mcp.InitializeParams) (mcp.InitializeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initCalls++
	c.initParams = params
	if c.initErr != nil {
		return mcp.InitializeResult{}, c.initErr
	}
	c.connected = true
	return mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		ServerInfo:      mcp.ServerInfo{Name: "stub"},
	}, nil
}

func (c *stubClient) ListTools(context.Context) (mcp.ToolsListResult, error) {
	if c.listErr != nil {
		return mcp.ToolsListResult{}, c.listErr
	}
	return mcp.ToolsListResult{Tools: c.tools}, nil
}

func (c *stubClient) CallTool(ctx context.Context, params mcp.ToolsCallParams) (mcp.ToolsCallResult, error) {
	c.mu.Lock()
	c.callCalls = append(c.callCalls, params)
	fn := c.callFn
	c.mu.Unlock()
	if fn == nil {
		return mcp.ToolsCallResult{}, nil
	}
	return fn(ctx, params)
}

func (c *stubClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *stubClient) Close(context.Context) error { return nil }

func textResult(texts ...string) mcp.ToolsCallResult {
	blocks := make([]mcp.ContentBlock, len(texts))
	for i, text := range texts {
		blocks[i] = mcp.ContentBlock{Type: "text", Text: text}
	}
	return mcp.ToolsCallResult{Content: blocks}
}

func readFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "read_file",
		Description: "Read a file from disk",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string"},
			},
			"required": []any{"path"},
		},
	}
}

func TestWrapName(t *testing.T) {
	tests := []struct {
		name    string
		adapter *Adapter
		server  string
		tool    string
		want    string
	}{
		{name: "default prefix", adapter: New(), server: "filesystem", tool: "read_file", want: "mcp_filesystem_read_file"},
		{name: "custom prefix", adapter: New(WithPrefix("ext")), server: "gh", tool: "search", want: "ext_gh_search"},
		{name: "sanitizes punctuation", adapter: New(), server: "my server!", tool: "do-it.now", want: "mcp_my_server__do_it_now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.adapter.WrapName(tt.server, tt.tool); got != tt.want {
				t.Errorf("WrapName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOriginalToolName(t *testing.T) {
	name, ok := OriginalToolName("mcp_filesystem_read_file", "filesystem", "mcp")
	if !ok || name != "read_file" {
		t.Errorf("OriginalToolName() = %q, %v; want read_file, true", name, ok)
	}

	if _, ok := OriginalToolName("mcp_other_read_file", "filesystem", "mcp"); ok {
		t.Error("wrong server should not match")
	}
	if _, ok := OriginalToolName("ext_filesystem_read_file", "filesystem", "mcp"); ok {
		t.Error("wrong prefix should not match")
	}

	// Sanitized server names still round-trip.
	adapter := New()
	wrapped := adapter.WrapName("my server", "run")
	name, ok = OriginalToolName(wrapped, "my server", "mcp")
	if !ok || name != "run" {
		t.Errorf("sanitized round trip = %q, %v; want run, true", name, ok)
	}
}

func TestFindLink(t *testing.T) {
	links := []Link{
		{ServerName: "fs", WrappedName: "mcp_fs_read"},
		{ServerName: "gh", WrappedName: "mcp_gh_search"},
	}

	link, ok := FindLink(links, "mcp_gh_search")
	if !ok || link.ServerName != "gh" {
		t.Errorf("FindLink() = %+v, %v", link, ok)
	}
	if _, ok := FindLink(links, "mcp_gh_missing"); ok {
		t.Error("FindLink(unknown) should report false")
	}
}

func TestAdaptToolInvokeSuccess(t *testing.T) {
	client := &stubClient{
		callFn: func(_ context.Context, _ mcp.ToolsCallParams) (mcp.ToolsCallResult, error) {
			return textResult("hello"), nil
		},
	}
	adapter := New()

	local, link := adapter.AdaptTool("filesystem", client, readFileTool())
	if local.Name != "mcp_filesystem_read_file" {
		t.Errorf("Name = %q", local.Name)
	}
	if link.OriginalTool.Name != "read_file" || link.ServerName != "filesystem" {
		t.Errorf("link = %+v", link)
	}

	got, err := local.Invoke(context.Background(), map[string]any{"path": "/tmp/x"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Invoke() = %q, want hello", got)
	}

	// The remote call must use the original, unwrapped tool name.
	if len(client.callCalls) != 1 {
		t.Fatalf("CallTool calls = %d, want 1", len(client.callCalls))
	}
	call := client.callCalls[0]
	if call.Name != "read_file" {
		t.Errorf("remote tool name = %q, want read_file", call.Name)
	}
	if call.Arguments["path"] != "/tmp/x" {
		t.Errorf("arguments = %v", call.Arguments)
	}
}

func TestAdaptToolInvokeRejectsBadArgs(t *testing.T) {
	client := &stubClient{}
	local, _ := New().AdaptTool("filesystem", client, readFileTool())

	_, err := local.Invoke(context.Background(), map[string]any{})
	var protoErr *mcp.ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Code != mcp.CodeInvalidParams {
		t.Fatalf("Invoke() error = %v, want INVALID_PARAMS", err)
	}
	if len(client.callCalls) != 0 {
		t.Error("remote call must not happen when validation fails")
	}
}

func TestInvokeRemoteApplicationError(t *testing.T) {
	client := &stubClient{
		callFn: func(context.Context, mcp.ToolsCallParams) (mcp.ToolsCallResult, error) {
			result := textResult("file not found", "check the path")
			result.IsError = true
			return result, nil
		},
	}
	local, _ := New().AdaptTool("fs", client, readFileTool())

	_, err := local.Invoke(context.Background(), map[string]any{"path": "/nope"})
	var protoErr *mcp.ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Code != mcp.CodeInternalError {
		t.Fatalf("Invoke() error = %v, want INTERNAL_ERROR", err)
	}
	if protoErr.Message != "file not found\ncheck the path" {
		t.Errorf("message = %q, want concatenated remote text", protoErr.Message)
	}
}

func TestInvokeTaxonomyErrorsPassThrough(t *testing.T) {
	remoteErr := mcp.NewProtocolError(mcp.CodeMethodNotFound, "no such tool")
	client := &stubClient{
		callFn: func(context.Context, mcp.ToolsCallParams) (mcp.ToolsCallResult, error) {
			return mcp.ToolsCallResult{}, remoteErr
		},
	}
	local, _ := New().AdaptTool("fs", client, readFileTool())

	_, err := local.Invoke(context.Background(), map[string]any{"path": "x"})
	var protoErr *mcp.ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Code != mcp.CodeMethodNotFound {
		t.Fatalf("Invoke() error = %v, want METHOD_NOT_FOUND passed through", err)
	}
}

func TestInvokeWrapsForeignErrors(t *testing.T) {
	dialErr := errors.New("dial tcp: connection refused")
	client := &stubClient{
		callFn: func(context.Context, mcp.ToolsCallParams) (mcp.ToolsCallResult, error) {
			return mcp.ToolsCallResult{}, dialErr
		},
	}
	local, _ := New().AdaptTool("fs", client, readFileTool())

	_, err := local.Invoke(context.Background(), map[string]any{"path": "x"})
	var protoErr *mcp.ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Code != mcp.CodeInternalError {
		t.Fatalf("Invoke() error = %v, want INTERNAL_ERROR wrap", err)
	}
	if !strings.Contains(protoErr.Message, "connection refused") {
		t.Errorf("message = %q, want original text preserved", protoErr.Message)
	}
	if !errors.Is(err, dialErr) {
		t.Error("wrapped error should unwrap to the original")
	}
}

func TestInvokeTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	client := &stubClient{
		callFn: func(context.Context, mcp.ToolsCallParams) (mcp.ToolsCallResult, error) {
			<-release
			return mcp.ToolsCallResult{}, nil
		},
	}
	adapter := New(WithTimeout(30 * time.Millisecond))
	local, _ := adapter.AdaptTool("fs", client, readFileTool())

	start := time.Now()
	_, err := local.Invoke(context.Background(), map[string]any{"path": "x"})
	elapsed := time.Since(start)

	var timeoutErr *mcp.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Invoke() error = %v, want TimeoutError", err)
	}
	if timeoutErr.Tool != "read_file" {
		t.Errorf("Tool = %q, want the original tool name", timeoutErr.Tool)
	}
	if timeoutErr.Timeout != 30*time.Millisecond {
		t.Errorf("Timeout = %s, want 30ms", timeoutErr.Timeout)
	}
	if elapsed > 2*time.Second {
		t.Errorf("invocation took %s, should settle near the timeout", elapsed)
	}
}

func TestInvokeContextCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	client := &stubClient{
		callFn: func(ctx context.Context, _ mcp.ToolsCallParams) (mcp.ToolsCallResult, error) {
			<-release
			return mcp.ToolsCallResult{}, nil
		},
	}
	local, _ := New().AdaptTool("fs", client, readFileTool())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := local.Invoke(ctx, map[string]any{"path": "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Invoke() error = %v, want context.Canceled in chain", err)
	}
}

func TestNormalizeResult(t *testing.T) {
	tests := []struct {
		name    string
		content []mcp.ContentBlock
		want    string
	}{
		{
			name: "text and image",
			content: []mcp.ContentBlock{
				{Type: "text", Text: "A"},
				{Type: "image", MimeType: "image/png"},
			},
			want: "A\n[Image: image/png]",
		},
		{
			name: "resource",
			content: []mcp.ContentBlock{
				{Type: "resource", Resource: &mcp.ResourceContents{URI: "file:///tmp/out.csv"}},
			},
			want: "[Resource: file:///tmp/out.csv]",
		},
		{
			name: "unrecognized blocks dropped",
			content: []mcp.ContentBlock{
				{Type: "text", Text: "first"},
				{Type: "audio", Data: "zzzz"},
				{Type: "text", Text: "second"},
			},
			want: "first\nsecond",
		},
		{name: "empty content", content: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeResult(tt.content); got != tt.want {
				t.Errorf("NormalizeResult() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectInitializesWhenDisconnected(t *testing.T) {
	client := &stubClient{tools: []mcp.Tool{readFileTool()}}
	adapter := New(WithClientInfo(mcp.ClientInfo{Name: "hostapp", Version: "1.2.3"}))

	locals, links, err := adapter.Connect(context.Background(), "filesystem", client)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if client.initCalls != 1 {
		t.Fatalf("initCalls = %d, want 1", client.initCalls)
	}
	if client.initParams.ProtocolVersion != mcp.ProtocolVersion {
		t.Errorf("ProtocolVersion = %q", client.initParams.ProtocolVersion)
	}
	if client.initParams.ClientInfo.Name != "hostapp" {
		t.Errorf("ClientInfo.Name = %q", client.initParams.ClientInfo.Name)
	}
	if len(locals) != 1 || len(links) != 1 {
		t.Fatalf("adapted %d tools, %d links; want 1 each", len(locals), len(links))
	}
	if locals[0].Name != "mcp_filesystem_read_file" {
		t.Errorf("tool name = %q", locals[0].Name)
	}
	if links[0].OriginalTool.Name != "read_file" {
		t.Errorf("link original = %q", links[0].OriginalTool.Name)
	}
}

func TestConnectSkipsInitializeWhenConnected(t *testing.T) {
	client := &stubClient{connected: true, tools: []mcp.Tool{readFileTool()}}

	_, _, err := New().Connect(context.Background(), "fs", client)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if client.initCalls != 0 {
		t.Errorf("initCalls = %d, want 0 for a live connection", client.initCalls)
	}
}

func TestConnectInitializeFailure(t *testing.T) {
	client := &stubClient{initErr: errors.New("handshake rejected")}

	_, _, err := New().Connect(context.Background(), "fs", client)
	var protoErr *mcp.ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Code != mcp.CodeInitializationError {
		t.Fatalf("Connect() error = %v, want INITIALIZATION_ERROR", err)
	}
	if !strings.Contains(protoErr.Message, `"fs"`) {
		t.Errorf("message = %q, should name the server", protoErr.Message)
	}
}

func TestConnectListToolsFailure(t *testing.T) {
	client := &stubClient{connected: true, listErr: errors.New("stream closed")}

	_, _, err := New().Connect(context.Background(), "fs", client)
	var protoErr *mcp.ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Code != mcp.CodeInternalError {
		t.Fatalf("Connect() error = %v, want INTERNAL_ERROR wrap", err)
	}
}

type recordingObserver struct {
	mu           sync.Mutex
	observations []InvokeObservation
}

func (r *recordingObserver) ObserveInvoke(observation InvokeObservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, observation)
}

func (r *recordingObserver) all() []InvokeObservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]InvokeObservation(nil), r.observations...)
}

func TestObserverReceivesInvokeOutcomes(t *testing.T) {
	client := &stubClient{
		callFn: func(context.Context, mcp.ToolsCallParams) (mcp.ToolsCallResult, error) {
			return textResult("ok"), nil
		},
	}
	observer := &recordingObserver{}
	adapter := New(WithObserver(observer))
	local, _ := adapter.AdaptTool("fs", client, readFileTool())

	if _, err := local.Invoke(context.Background(), map[string]any{"path": "a"}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if _, err := local.Invoke(context.Background(), map[string]any{"path": "b"}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	got := observer.all()
	if len(got) != 2 {
		t.Fatalf("observations = %d, want 2", len(got))
	}
	first := got[0]
	if !first.Success || first.TimedOut {
		t.Errorf("observation = %+v, want success", first)
	}
	if first.ServerName != "fs" || first.Tool != "read_file" || first.WrappedName != "mcp_fs_read_file" {
		t.Errorf("observation identity = %+v", first)
	}
	if first.RequestID == "" || first.RequestID == got[1].RequestID {
		t.Error("request IDs should be set and distinct per invocation")
	}
}

func TestObserverRecordsTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	client := &stubClient{
		callFn: func(context.Context, mcp.ToolsCallParams) (mcp.ToolsCallResult, error) {
			<-release
			return mcp.ToolsCallResult{}, nil
		},
	}
	observer := &recordingObserver{}
	adapter := New(WithTimeout(20*time.Millisecond), WithObserver(observer))
	local, _ := adapter.AdaptTool("fs", client, readFileTool())

	if _, err := local.Invoke(context.Background(), map[string]any{"path": "x"}); err == nil {
		t.Fatal("Invoke() error = nil, want timeout")
	}

	got := observer.all()
	if len(got) != 1 {
		t.Fatalf("observations = %d, want 1", len(got))
	}
	if got[0].Success || !got[0].TimedOut {
		t.Errorf("observation = %+v, want timed-out failure", got[0])
	}
	if got[0].ErrorCode != "TIMEOUT_ERROR" {
		t.Errorf("ErrorCode = %q, want TIMEOUT_ERROR", got[0].ErrorCode)
	}
}
