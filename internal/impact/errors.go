package impact

type constError string

func (e constError) Error() string { return string(e) }

// ErrInvalidUnit indicates a unit outside kg, m3 and m2.
var ErrInvalidUnit = constError("invalid unit")
