package lookup

type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrUnavailable indicates the catalog could not be read or the lookup
	// service could not be reached.
	ErrUnavailable = constError("catalog lookup unavailable")

	// ErrMalformedResponse indicates a lookup response that does not line up
	// with the request.
	ErrMalformedResponse = constError("malformed lookup response")
)
