package health

import (
	"context"
	"time"

	"github.com/petal-labs/toolgate/catalog"
	"github.com/petal-labs/toolgate/mcp"
)

// State indicates the current health of a configured server.
type State string

const (
	StateUnknown   State = "unknown"
	StateHealthy   State = "healthy"
	StateUnhealthy State = "unhealthy"
)

// ClientFactory opens a transport client for one server definition. The
// caller owns the returned client and must close it.
type ClientFactory func(ctx context.Context, def catalog.ServerDefinition) (mcp.RemoteToolClient, error)

// Report is a normalized health snapshot for a single server.
type Report struct {
	Server       string    `json:"server"`
	State        State     `json:"state"`
	CheckedAt    time.Time `json:"checked_at"`
	LatencyMS    int64     `json:"latency_ms,omitempty"`
	ToolCount    int       `json:"tool_count,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Evaluate checks one server by opening a session and listing its tools.
// It never returns an error; failures are carried inside the report.
func Evaluate(ctx context.Context, def catalog.ServerDefinition, factory ClientFactory) Report {
	report := Report{
		Server:    def.Name,
		State:     StateUnknown,
		CheckedAt: time.Now().UTC(),
	}
	if factory == nil {
		report.State = StateUnhealthy
		report.ErrorMessage = "client factory is required"
		return report
	}

	client, err := factory(ctx, def)
	if err != nil {
		report.State = StateUnhealthy
		report.ErrorMessage = err.Error()
		return report
	}
	defer func() {
		_ = client.Close(ctx)
	}()

	start := time.Now()
	if !client.IsConnected() {
		_, err := client.Initialize(ctx, mcp.InitializeParams{
			ProtocolVersion: mcp.ProtocolVersion,
			ClientInfo: mcp.ClientInfo{
				Name:    mcp.DefaultClientName,
				Version: mcp.DefaultClientVersion,
			},
		})
		if err != nil {
			report.State = StateUnhealthy
			report.ErrorMessage = err.Error()
			return report
		}
	}

	listed, err := client.ListTools(ctx)
	if err != nil {
		report.State = StateUnhealthy
		report.ErrorMessage = err.Error()
		report.LatencyMS = time.Since(start).Milliseconds()
		return report
	}

	report.State = StateHealthy
	report.LatencyMS = time.Since(start).Milliseconds()
	report.ToolCount = len(listed.Tools)
	return report
}
