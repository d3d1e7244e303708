package window

import "errors"

var (
	errEmptyCoeffs      = errors.New("window coefficients must not be empty")
	errZeroCoherentGain = errors.New("window coherent gain is zero")
	errUnknownFunction  = errors.New("unknown window function")
	errInvalidHop       = errors.New("hop size must be in [1, len(coeffs)]")
)
