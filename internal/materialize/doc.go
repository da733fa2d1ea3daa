// Package materialize writes a classified checkout into its destination tree.
//
// The destination is wiped and repopulated on every run; only files named by
// the copied categories, assembly groups, retained metadata and extra files
// survive. Paths are resolved with filepath-securejoin so nothing lands outside
// the destination or is read from outside the workspace.
package materialize
