// Package observability exposes prometheus collectors that consume the
// engine's lifecycle hooks. The engine stays metrics-agnostic; hosts wire
// the hooks in when they want telemetry.
package observability
