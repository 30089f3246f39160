package sync

import "errors"

// Run-level failure classes. A credential error needs human action (re-run
// the authorization flow); an upstream error is transient and the next run
// retries the same window; a store error is fatal for the run. None of them
// advance the cursor.
var (
	ErrCredential = errors.New("credential error")
	ErrUpstream   = errors.New("upstream fetch error")
	ErrStore      = errors.New("store error")
)
