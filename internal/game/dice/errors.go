package dice

import "errors"

var (
	// ErrInvalidArgument is returned for out-of-domain inputs such as an empty
	// face set, a non-positive roll count or a weight that is not a real number.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDuplicateFace is returned by New when a face label repeats.
	ErrDuplicateFace = errors.New("duplicate face")
	// ErrFaceNotFound is returned when a weight update names an unknown face.
	ErrFaceNotFound = errors.New("face not found")
	// ErrNegativeWeight is returned when a weight update is below zero.
	ErrNegativeWeight = errors.New("negative weight")
	// ErrInvalidState is returned when a die cannot be rolled because its
	// weights sum to zero.
	ErrInvalidState = errors.New("invalid state")
)
