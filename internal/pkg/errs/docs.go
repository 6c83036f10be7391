// Package errs provides standardized error types for the dispatch engine.
// It implements a consistent pattern for error creation, formatting, and
// unwrapping that is used throughout the application.
//
// Each error type follows the same shape:
//   - A sentinel error variable (e.g. ErrObjectNotFound) for errors.Is checks
//   - A struct type carrying the error details
//   - Constructor functions with and without an underlying cause
//   - Error() for formatting and Unwrap() for classification
//
// Besides the generic validation errors, the package carries ErrConflictRetry,
// the transient error surfaced when a compare-and-set update against the order
// or driver store loses a race with a concurrent writer.
package errs
