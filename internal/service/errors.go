package service

import "errors"

// ErrValidation marks caller-supplied data that violates a domain
// rule. The operation is not attempted; handlers map it to 400.
// Missing entities surface as storage.ErrNotFound.
var ErrValidation = errors.New("validation failed")
