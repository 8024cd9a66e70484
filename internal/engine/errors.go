package engine

import "fmt"

type constError string

func (e constError) Error() string { return string(e) }

// Session errors.
var (
	// ErrRowNotFound indicates an unknown row id. The operation made no change.
	ErrRowNotFound = constError("row not found")

	// ErrEntryNotFound indicates an entry id absent from a row's candidates.
	ErrEntryNotFound = constError("entry not among row candidates")

	// ErrStaleResult indicates a lookup result that arrived after the row
	// was mutated again; the result was discarded.
	ErrStaleResult = constError("stale lookup result discarded")

	// ErrReinforcementNotFound indicates the catalog has no plausible
	// reinforcement steel entry. No rows were derived.
	ErrReinforcementNotFound = constError("reinforcement steel entry not found in catalog")

	// ErrInvalidArgument indicates a rejected operation parameter.
	ErrInvalidArgument = constError("invalid argument")
)

// RowError attaches the offending row id to an error.
type RowError struct {
	ID  RowID
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %s: %v", e.ID, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }
