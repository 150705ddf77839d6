package stdimg

import "errors"

var (
	// ErrInvalidPalette is returned when a matcher or ditherer is given an empty palette.
	ErrInvalidPalette = errors.New("palette must contain at least one color")
	// ErrDegenerateLevels reports blackPoint >= whitePoint.
	ErrDegenerateLevels = errors.New("levels black point must be below white point")
	// ErrOutOfRange reports a parameter outside its documented domain.
	ErrOutOfRange = errors.New("parameter out of range")
)
