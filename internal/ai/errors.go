package ai

import "errors"

// ErrUnavailable means the provider is not usable as configured, e.g. a
// missing api key.
var ErrUnavailable = errors.New("ai provider unavailable")
