// Package config loads the agentkitd YAML configuration: the HTTP listener,
// logging, the agent kit gateways, the invocation journal, telemetry and the
// MCP server identity. Missing values are filled by applyDefaults.
package config
