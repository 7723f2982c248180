package resumes

import "github.com/google/uuid"

// NewID returns a random v4 UUID.
func NewID() string {
	return uuid.NewString()
}
