package services

import "errors"

var (
	// ErrInvalidChars means the chosen characters are not a usable subset of
	// the hex alphabet (empty, non-hex, or the full alphabet).
	ErrInvalidChars = errors.New("invalid character selection")

	// ErrInvalidStakeRange means a stake falls outside the configured
	// min/max window.
	ErrInvalidStakeRange = errors.New("stake outside allowed range")

	// ErrUnresolvableInboundTx means the funding transaction for a funded
	// address could not be identified. The bet stays PENDING for manual
	// intervention.
	ErrUnresolvableInboundTx = errors.New("cannot identify funding transaction")

	// ErrNotActive means automatic betting was asked to stop but was never
	// enabled.
	ErrNotActive = errors.New("automatic betting not active")
)
