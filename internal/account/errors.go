package account

import "errors"

// ErrAccountLocked indicates that a concurrent operation already holds the
// per-user ledger lock.
var ErrAccountLocked = errors.New("account is locked, try again later")
