package metrics

import (
	"errors"
)

// ErrNotInitialized is returned when the global manager has been disabled.
var ErrNotInitialized = errors.New("metrics manager not initialized")
