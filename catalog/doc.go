// Package catalog maintains the persistent catalog of known MCP servers.
//
// It has three parts: the ServerDefinition data model with its shared
// validation rules, the configuration loaders that ingest server
// definitions from standalone catalog files and host project configs, and
// the Registry, an in-memory name-keyed map persisted through a pluggable
// Backend (JSON file by default, SQLite optionally).
package catalog
