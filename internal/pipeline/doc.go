// Package pipeline drives one vendoring run per target.
//
// A run moves through PREFLIGHT, CLEANED, FETCHED, CLASSIFIED, MATERIALIZED,
// MANIFESTED and SHIMMED to DONE; any failure moves it to the absorbing FAILED
// state. The ephemeral workspace is released on every exit path. Destination
// and shim trees are built in staging directories and swapped in only after
// the last step succeeds, so a failed run leaves the previous trees in place.
package pipeline
