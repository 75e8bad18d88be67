// Package errors implements the intake failure taxonomy. Every failure is
// recovered at the workflow boundary and rendered to the user; none are fatal.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how it is reported to the user.
type Kind int

const (
	// KindClassification covers malformed, missing or timed-out model output.
	// Transport errors from the model API land here too.
	KindClassification Kind = iota

	// KindStoreWrite covers a failed create or patch against the store.
	// The attempted write is abandoned and never retried automatically.
	KindStoreWrite

	// KindStoreQuery covers a failed lookup, count or search.
	KindStoreQuery

	// KindStaleConfirmation is a confirmation that matches no pending decision.
	KindStaleConfirmation

	// KindPartialArchive is an archive copy whose source was not marked inactive.
	KindPartialArchive
)

var kindNames = map[Kind]string{
	KindClassification:    "classification_failure",
	KindStoreWrite:        "store_write_failure",
	KindStoreQuery:        "store_query_failure",
	KindStaleConfirmation: "stale_confirmation",
	KindPartialArchive:    "partial_archive_failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Failure wraps an error with its kind and, for store failures, the bucket
// the operation targeted.
type Failure struct {
	Kind       Kind
	Message    string
	Bucket     string
	Underlying error
}

// Error implements the error interface.
func (e *Failure) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Failure) Unwrap() error {
	return e.Underlying
}

// Is matches any Failure of the same kind.
func (e *Failure) Is(target error) bool {
	var f *Failure
	if errors.As(target, &f) {
		return e.Kind == f.Kind
	}
	return false
}

// New creates a Failure of the given kind.
func New(kind Kind, message string, underlying error) *Failure {
	return &Failure{
		Kind:       kind,
		Message:    message,
		Underlying: underlying,
	}
}

// WithBucket records the bucket a store operation targeted.
func (e *Failure) WithBucket(bucket string) *Failure {
	e.Bucket = bucket
	return e
}

// Wrap classifies err. An existing Failure keeps its kind and bucket.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return &Failure{
			Kind:       f.Kind,
			Message:    message,
			Bucket:     f.Bucket,
			Underlying: err,
		}
	}

	return New(kind, message, err)
}

// KindOf extracts the Kind from err. Unclassified errors are reported as
// classification failures since that is the least specific user message.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return KindClassification, false
}

// BucketOf returns the bucket recorded on err, if any.
func BucketOf(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Bucket
	}
	return ""
}

// Sentinels for errors.Is checks.
var (
	ErrClassification    = New(KindClassification, "classification failed", nil)
	ErrStoreWrite        = New(KindStoreWrite, "store write failed", nil)
	ErrStoreQuery        = New(KindStoreQuery, "store query failed", nil)
	ErrStaleConfirmation = New(KindStaleConfirmation, "no matching pending decision", nil)
	ErrPartialArchive    = New(KindPartialArchive, "archived copy created but source still live", nil)
)
