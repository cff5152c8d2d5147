package risk

import "errors"

var (
	ErrUnknownSleeve     = errors.New("unknown sleeve")
	ErrTotalMismatch     = errors.New("sleeve total does not match sum")
	ErrInvalidSplit      = errors.New("invalid sleeve split")
	ErrInvalidRiskPct    = errors.New("invalid risk fraction")
	ErrInvalidFloor      = errors.New("invalid floor pct")
	ErrInvalidMultiplier = errors.New("invalid multiplier")
	ErrInvalidConfig     = errors.New("invalid policy config")
)
