// Package util holds small internal helpers shared across packages.
package util

import "github.com/google/uuid"

// NewID generates a new unique identifier for runs and tasks.
func NewID() string { return uuid.NewString() }
