package inventory

type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrInvalidShape indicates input whose overall structure is unusable,
	// such as JSON that is not an array of objects or a table missing a
	// mapped column.
	ErrInvalidShape = constError("invalid inventory shape")

	// ErrUnsupportedFormat indicates a file extension with no loader.
	ErrUnsupportedFormat = constError("unsupported inventory format")
)
