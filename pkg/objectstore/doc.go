/*
Package objectstore implements component A: the object-store adapter
that holds one whitelist CSV blob per whitelist name, keyed as
"<name>.csv" with content type "text/csv".

Get, Put, and Delete wrap the AWS S3 v2 SDK client directly,
following the same thin-adapter shape as the Tessera project's S3
storage driver: one struct holding a bucket name and an *s3.Client,
methods that translate SDK calls into plain byte slices and errors.
Put enforces allowOverwrite=false using an IfNoneMatch
precondition rather than a client-side existence check, and treats a
byte-identical retry of the same content as an idempotent success
rather than a conflict. Delete polls for post-delete absence (S3
deletes are read-after-delete consistent, but the adapter still honors
the wait-until-absent contract needed for symmetry with the
KV adapter's stronger guarantees).

All returned errors are wrapped through apperr.FromAWS so callers only
ever see the apperr.Kind taxonomy, never raw smithy error codes.
*/
package objectstore
