// Package adapter turns tools advertised by MCP servers into locally
// invokable tool definitions. It derives stable wrapped names, translates
// the remote JSON-Schema subset into a validated parameter schema, runs
// invocations under a per-call timeout, and normalizes heterogeneous
// call results into the single string the host tool interface expects.
package adapter
