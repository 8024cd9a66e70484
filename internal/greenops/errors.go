package greenops

type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrInvalidUnit indicates an unrecognized mass unit.
	ErrInvalidUnit = constError("invalid carbon unit")

	// ErrNegativeValue indicates a negative carbon value. Credits are not
	// modelled.
	ErrNegativeValue = constError("negative carbon value")

	// ErrCalculationOverflow indicates a NaN, infinite or overflowing value.
	ErrCalculationOverflow = constError("calculation overflow")

	// ErrInvalidLocale indicates a locale tag that cannot be parsed.
	ErrInvalidLocale = constError("invalid locale")

	// ErrUnknownEquivalency indicates an equivalency name that is not defined.
	ErrUnknownEquivalency = constError("unknown equivalency type")
)
