// Package errors provides error handling for probs-runner.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// It also defines the sentinel errors for the pipeline layers. Every failure
// surfaced by this module is (or wraps) one of these sentinels, so callers can
// classify failures with errors.Is without parsing messages.
//
// Usage:
//
//	// Wrap with context
//	if err := stage(); err != nil {
//	    return errors.Wrap(err, "failed to stage datasource")
//	}
//
//	// Classify
//	if errors.Is(err, errors.ErrStagingCollision) {
//	    // two inputs mapped to the same staged path
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll

	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// CombineErrors returns err, or otherErr if err is nil.
var CombineErrors = crdb.CombineErrors

// Sentinel errors for the pipeline staging and composition layers.
// Wrap these with errors.Wrap to add context while preserving the kind.
var (
	// ErrConfiguration indicates a missing or unreadable assets source, or
	// no installed default where one was required.
	ErrConfiguration = New("configuration error")

	// ErrValidation indicates invalid caller input: ambiguous datasource
	// naming, unrecognized input extensions with no explicit load script,
	// or a malformed query-shape argument.
	ErrValidation = New("validation error")

	// ErrStagingCollision indicates two inputs mapped to the same staged
	// path outside the designated accumulator targets.
	ErrStagingCollision = New("staging collision")

	// ErrProcessStartup indicates the engine failed to launch or crashed
	// before becoming ready.
	ErrProcessStartup = New("engine startup failed")

	// ErrReadinessTimeout indicates the bounded readiness wait elapsed
	// without the expected signal.
	ErrReadinessTimeout = New("engine readiness timeout")

	// ErrEngineRuntime indicates the engine exited non-zero or reported
	// failure during an artifact-producing run.
	ErrEngineRuntime = New("engine runtime failure")
)

// IsConfiguration reports whether err is or wraps ErrConfiguration.
func IsConfiguration(err error) bool {
	return err != nil && Is(err, ErrConfiguration)
}

// IsValidation reports whether err is or wraps ErrValidation.
func IsValidation(err error) bool {
	return err != nil && Is(err, ErrValidation)
}

// IsStagingCollision reports whether err is or wraps ErrStagingCollision.
func IsStagingCollision(err error) bool {
	return err != nil && Is(err, ErrStagingCollision)
}

// IsReadinessTimeout reports whether err is or wraps ErrReadinessTimeout.
func IsReadinessTimeout(err error) bool {
	return err != nil && Is(err, ErrReadinessTimeout)
}

// NewConfigurationError creates a configuration error with a formatted message.
func NewConfigurationError(format string, args ...interface{}) error {
	return Wrap(ErrConfiguration, Newf(format, args...).Error())
}

// NewValidationError creates a validation error with a formatted message.
func NewValidationError(format string, args ...interface{}) error {
	return Wrap(ErrValidation, Newf(format, args...).Error())
}

// NewStagingCollisionError creates a staging-collision error naming the
// contested target path.
func NewStagingCollisionError(target string) error {
	return Wrapf(ErrStagingCollision, "duplicate entry in staged files for %q", target)
}
