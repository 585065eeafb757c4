package supervisor

import "errors"

const Namespace = "branchkit/supervisor"

var (
	// ErrInvalidBand is returned by New when L < 1 or L > U.
	ErrInvalidBand = errors.New(Namespace + ": L must satisfy 1 <= L <= U")

	// ErrInvalidInterval is returned by New when Interval is not positive.
	ErrInvalidInterval = errors.New(Namespace + ": Interval must be greater than zero")
)
