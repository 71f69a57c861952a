// Package mcp defines the Model Context Protocol value types, the error
// taxonomy shared by the catalog and adapter layers, and the
// RemoteToolClient contract that concrete transports implement.
//
// Transport implementations (stdio process framing, HTTP bodies) live
// outside this module; everything here speaks in terms of the
// RemoteToolClient interface.
package mcp
