package core

import "github.com/google/uuid"

// NewID returns a random unique identifier used to correlate a pipeline run
// across log lines.
func NewID() string { return uuid.NewString() }
