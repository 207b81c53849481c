/*
Package kvstore implements component B: a thin DynamoDB adapter shared
by the roots and proofs tables.

The adapter speaks in raw attributevalue maps rather than typed
records — callers (pkg/treelifecycle, pkg/whitelist) own the
marshaling to and from pkg/types structs via
github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue. This
keeps the adapter a pure storage primitive: get/put/delete/query/scan
plus the batch and transactional bulk operations, each chunked to the
provider's documented limits (25 items per batch write, 25 per batch
statement, 100 per transactional write). Batch writes retry
unprocessed items with a 10ms*2^i backoff and return
apperr.PartialBatch once the retry budget is spent; the transactional
and PartiQL-statement paths make a single call per chunk and do not
retry. Every point read
and query uses ConsistentRead; every
returned error is passed through apperr.FromAWS so callers never see
raw DynamoDB exception types.

No third-party AWS SDK example in the reference pack calls the
DynamoDB API directly; this package's dependency surface is grounded
on the gurre-ddb-pitr module manifest, which lists
aws-sdk-go-v2/service/dynamodb and its attributevalue feature package
alongside aws-sdk-go-v2/service/s3 in a single production go.mod,
confirming the pairing used throughout this repo.
*/
package kvstore
