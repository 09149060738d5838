package uid

import "github.com/google/uuid"

// NewSessionID returns a random (version 4) UUID string.
func NewSessionID() string {
	return uuid.NewString()
}

// IsSessionID reports whether id has the shape NewSessionID produces.
func IsSessionID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.Version() == 4
}
