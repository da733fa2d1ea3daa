// Package classify partitions an upstream checkout into a fileset.FileSet.
//
// Three strategies share one output shape:
//   - generator: an upstream-supplied generator reports sets through a Sink
//   - manifest: a pre-generated JSON manifest is read and merged into unified categories
//   - glob: categories are declared as doublestar patterns in configuration,
//     minus a shared exclude list
//
// Whatever the strategy, a required category that was not reported is a
// classification failure; nothing substitutes an empty set.
package classify
