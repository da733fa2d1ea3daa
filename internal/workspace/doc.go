// Package workspace manages the ephemeral directory a vendoring run clones into.
//
// Each run gets a freshly created, empty directory (e.g. vendorroll-boringssl-3141592653)
// that is removed on every exit path. Use With for scoped acquisition so release runs
// even when the body fails or panics.
package workspace
