// Package simsdk is a deterministic, in-process simulation of the map SDK.
//
// ARCHITECTURE:
//
// Single-goroutine event loop:
// Commands (SetZoom, PanTo, SetMap, ...) are applied synchronously on the
// caller's goroutine and recorded in the trace. The events they cause
// (zoom_changed, idle, click, ...) are enqueued to a FIFO queue and
// delivered to listeners by one loop goroutine, the way a browser SDK
// delivers callbacks on its event loop. Because a caller always waits for
// the confirming event before issuing the next command, the trace of a
// sequential animation is identical on every run.
//
// Event model:
//   - SetZoom emits zoom_changed only when the clamped level differs.
//   - PanTo always emits idle once the new centre is applied.
//   - Zoom changes do not emit idle.
//
// Ordering:
// Every trace entry is stamped with a seq that only grows, across
// ResetTrace too.
package simsdk
