package ledger

import "errors"

// ErrRejected is returned by Sequential when a failure has been injected
// without a specific cause.
var ErrRejected = errors.New("ledger: record rejected")
