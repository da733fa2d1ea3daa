// Package errors provides the classified error type used across vendorroll.
//
// Every fatal condition of a vendoring run maps onto one category:
//   - CategoryToolNotFound: a required executable is missing (preflight)
//   - CategoryFetch: clone, checkout or latest-revision lookup failed
//   - CategoryClassification: generator/manifest output is missing a required category or malformed
//   - CategoryMaterialization: a classified file is absent at copy time
//   - CategoryFileSystem: IO or permission errors, propagated unchanged as the cause
//
// Example usage:
//
//	err := errors.FetchFailure("checkout failed").
//		WithContext("revision", rev).
//		WithCause(originalErr).
//		Build()
package errors
