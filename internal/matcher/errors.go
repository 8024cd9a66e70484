package matcher

type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors for matcher construction.
var (
	// ErrInvalidCategory indicates a category rule that cannot match.
	ErrInvalidCategory = constError("invalid match category")

	// ErrUnknownPolicy indicates an unrecognized fallback policy name.
	ErrUnknownPolicy = constError("unknown fallback policy")
)
