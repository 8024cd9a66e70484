package catalog

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors returned by providers. Compare with errors.Is.
var (
	// ErrUnsupportedSchema indicates a snapshot written for an incompatible schema.
	ErrUnsupportedSchema = constError("unsupported catalog schema version")

	// ErrInvalidEntry indicates an entry without id or name, or with negative values.
	ErrInvalidEntry = constError("invalid catalog entry")

	// ErrDuplicateEntry indicates two entries sharing an id.
	ErrDuplicateEntry = constError("duplicate catalog entry id")

	// ErrUnsupportedFormat indicates a catalog file extension we cannot decode.
	ErrUnsupportedFormat = constError("unsupported catalog file format")

	// ErrUnavailable indicates the catalog source could not be reached.
	ErrUnavailable = constError("catalog unavailable")
)
