// Package health evaluates the availability of configured MCP servers.
// An evaluation opens a short-lived session through a caller-supplied
// client factory, performs the initialize handshake and a tools/list ping,
// and reports the outcome. A cron-driven Scheduler runs evaluations over a
// registry's enabled servers in the background.
package health
