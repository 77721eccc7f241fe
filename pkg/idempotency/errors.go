package idempotency

import "errors"

// ErrMessageAlreadyProcessed indicates that a message has already been processed
var ErrMessageAlreadyProcessed = errors.New("message has already been processed")
