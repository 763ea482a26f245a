// Package sdk describes the capability surface this module consumes from an
// external, asynchronous, event-driven map rendering SDK.
//
// Nothing in this package renders anything. It names the operations the map
// core relies on:
//
//   - per-library asynchronous import (Importer)
//   - a Map handle with zoom, viewport bounds and pan-to
//   - a grouped vector layer (Data) supporting add/remove/style overrides
//   - a Marker with a settable map attachment
//   - event registration with one-shot and persistent listeners
//
// The SDK delivers every event on its own event loop. Handlers must not block.
// The in-process simulation in package simsdk implements these interfaces and
// is what the tests, the scenario harness and the CLI run against.
package sdk
