package uid

import "github.com/google/uuid"

// New generates a new unique identifier. Queued actions use these as
// idempotency keys: the ID is minted once at enqueue time and travels with
// the action through every retry.
func New() string {
	return uuid.New().String()
}

// IsValid checks if a string is a valid UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
