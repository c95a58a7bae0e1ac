package storage

import "errors"

// ErrMissingStore and ErrWrongMode are the two "fail fast with an
// explanatory error" cases spec §4.2 requires of the transaction contract.
var (
	ErrMissingStore = errors.New("storage: transaction missing required store")
	ErrWrongMode    = errors.New("storage: transaction has wrong mode")
)

// ErrCorruptClock marks a persisted clock value spec §4.2 says must be
// rejected: anything less than -1.
var ErrCorruptClock = errors.New("storage: persisted clock value is corrupt")
