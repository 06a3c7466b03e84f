// Package errs provides the standardized error types used across the dispatch
// engine. It implements a consistent pattern for error creation, formatting,
// and unwrapping.
//
// Each error type follows the same shape:
//   - A sentinel error variable (e.g. ErrValueIsRequired) for errors.Is checks
//   - A struct type carrying error details
//   - Constructor functions with and without an underlying cause
//   - Error() for formatting and Unwrap() for classification
//
// The race-related lifecycle errors (stale offer, already assigned, illegal
// transition) are deliberately NOT defined here: they are domain outcomes, not
// infrastructure failures, and live as sentinels in their owning domain
// packages. This package covers validation failures, missing objects,
// optimistic-concurrency conflicts, and transient unavailability.
package errs
