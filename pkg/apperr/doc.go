/*
Package apperr defines the error-kind taxonomy surfaced by every
component of the whitelist-to-Merkle-tree service.

Every error that crosses a component boundary (objectstore, kvstore,
merkle, treelifecycle, whitelist) is either an *apperr.Error carrying one
of the Kind values below, or an unexpected error that a caller should
treat as internal and re-raise. The HTTP route boundary (out of scope
for this core) is expected to switch on Kind to pick a
status code and errorCode string; it never needs to inspect the
underlying provider error.

Kind mapping from the AWS SDK is table-driven (see FromAWS), per the
explicit design note against a cascade of type assertions.
*/
package apperr
