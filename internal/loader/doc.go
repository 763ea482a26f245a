// Package loader imports SDK feature libraries exactly once each and exposes
// per-library load state.
//
// A Loader connects to an sdk.Platform on its first Init. The first
// configuration wins: later Init calls with different connection options
// only log a warning. LoadLibraries issues an import only for libraries that
// were never requested; libraries already loading are joined and libraries
// that failed report their earlier error. Error is terminal until Reset.
//
// Provider wraps a Loader with the set of libraries its caller requires and
// derives an aggregate "fully loaded" status from the loader state.
//
// The process-wide loader is explicit: Shared returns it and ResetShared
// drops it, which tests use between cases.
package loader
