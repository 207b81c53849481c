package apperr

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Kind is the closed set of error kinds the service surfaces across its
// component boundaries.
type Kind string

const (
	// Validation covers malformed input, application-level state-machine
	// precondition violations, and business rules (duplicate address,
	// tree already exists).
	Validation Kind = "Validation"

	// ResourceNotFound is reserved for GET endpoints when a record does
	// not exist.
	ResourceNotFound Kind = "ResourceNotFound"

	// ConditionalCheckFailed means a KV conditional write lost a race:
	// either a concurrent writer won, or a compensating transition found
	// an unexpected prior state.
	ConditionalCheckFailed Kind = "ConditionalCheckFailed"

	// Throttled means the KV or object store rejected the call due to
	// request-rate limiting.
	Throttled Kind = "Throttled"

	// Conflict covers transaction and replication conflicts reported by
	// the KV store that are not conditional-check failures.
	Conflict Kind = "Conflict"

	// InternalError covers unexpected provider-side failures.
	InternalError Kind = "InternalError"

	// AccessDenied is surfaced with its message normalized to the
	// constant string "Access denied".
	AccessDenied Kind = "AccessDenied"

	// Other is the catch-all for provider errors that do not map to any
	// of the kinds above.
	Other Kind = "Other"

	// PartialBatch means a batch write exhausted its retry budget with
	// items still left in the provider's unprocessed-items response,
	// rather than silently dropping them.
	PartialBatch Kind = "PartialBatch"

	// UnauthorizedAccess is returned when a group-gated route is called
	// by a caller not in any authorized group (HTTP 403 at the route
	// boundary).
	UnauthorizedAccess Kind = "UnauthorizedAccess"
)

// Error is the typed error every component returns for an expected
// failure. Unexpected (unknown) errors should not be wrapped in an
// Error; they propagate as-is so the caller knows to treat them as a
// defect rather than a handled outcome.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error that wraps an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the Kind carried by err, or Other if err is not an
// *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// awsCodeTable maps smithy/AWS API error codes to apperr kinds. Driven
// as a table rather than a cascade of type assertions.
var awsCodeTable = map[string]Kind{
	"ConditionalCheckFailedException":      ConditionalCheckFailed,
	"TransactionCanceledException":         ConditionalCheckFailed,
	"PreconditionFailed":                   ConditionalCheckFailed,
	"ProvisionedThroughputExceededException": Throttled,
	"RequestLimitExceeded":                 Throttled,
	"ThrottlingException":                  Throttled,
	"TooManyRequestsException":             Throttled,
	"TransactionConflictException":         Conflict,
	"ItemCollectionSizeLimitExceededException": Conflict,
	"InternalServerError":                  InternalError,
	"ServiceUnavailable":                   InternalError,
	"ResourceNotFoundException":            ResourceNotFound,
	"NoSuchKey":                            ResourceNotFound,
	"NoSuchBucket":                         ResourceNotFound,
	"AccessDeniedException":                AccessDenied,
	"AccessDenied":                         AccessDenied,
	"UnrecognizedClientException":          AccessDenied,
}

// FromAWS maps a provider error returned by the S3 or DynamoDB SDK
// clients into the apperr taxonomy. Access-denied messages are
// rewritten to the constant string "Access denied" before surfacing.
// Errors with no recognized code map to Other.
func FromAWS(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind, ok := awsCodeTable[apiErr.ErrorCode()]
		if !ok {
			kind = Other
		}
		message := apiErr.ErrorMessage()
		if kind == AccessDenied {
			message = "Access denied"
		}
		return Wrap(kind, fmt.Sprintf("%s: %s", op, message), err)
	}

	return Wrap(Other, op, err)
}
