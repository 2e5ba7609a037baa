package core

import "errors"

var (
	// ErrIndexOutOfRange reports an index outside [0, NObjects()).
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnsupportedObjectKind reports an object/component pair that cannot
	// be rendered. Fatal for that index only.
	ErrUnsupportedObjectKind = errors.New("unsupported object kind")
	// ErrInvariantViolation reports corrupt catalog data.
	ErrInvariantViolation = errors.New("catalog invariant violated")
	// ErrMissingAttribute reports a native attribute absent from an object.
	ErrMissingAttribute = errors.New("missing catalog attribute")
	// ErrUnknownBand reports a photometric band with no configuration.
	ErrUnknownBand = errors.New("unknown band")
	// ErrNoRandomStream reports a stochastic step invoked without a stream.
	ErrNoRandomStream = errors.New("random stream required")
	// ErrBadLookupTable reports tabulated data that cannot be interpolated.
	ErrBadLookupTable = errors.New("invalid lookup table")
)
