package fact

import "errors"

var (
	// ErrNotFound indicates the requested fact does not exist.
	ErrNotFound = errors.New("fact not found")

	// ErrConflict indicates a supersession or verification raced with a
	// concurrent update: the target is no longer the active version of
	// its lineage. Callers should re-fetch the active fact and re-decide,
	// not blindly retry the same call.
	ErrConflict = errors.New("fact already superseded or inactive")

	// ErrTimeout indicates a store query exceeded its deadline.
	ErrTimeout = errors.New("store query timed out")
)
