package strategy

import "errors"

var (
	// ErrConfig marks a malformed strategy configuration. Configuration
	// errors fail fast at activation time and are never silently defaulted.
	ErrConfig = errors.New("strategy: invalid configuration")

	// ErrUnknownFamily is returned when the evaluator receives a config
	// type outside the closed set of strategy families.
	ErrUnknownFamily = errors.New("strategy: unknown strategy family")
)

// Hold reasons shared across families. Insufficient data and invalid
// indicator readings are recoverable per-cycle conditions, not errors.
const (
	ReasonInsufficientData = "insufficient data"
	ReasonInvalidIndicator = "invalid indicator value"
)
