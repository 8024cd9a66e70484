package config

type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrCatalogNotConfigured is returned by Validate when no usable
	// catalog source, path, DSN or URL is set.
	ErrCatalogNotConfigured = constError("catalog access not configured")

	// ErrInvalidConfig is returned by Validate for out-of-range or unknown
	// values.
	ErrInvalidConfig = constError("invalid configuration")
)
