package session

import "github.com/google/uuid"

// UUIDv7Generator generates time-sortable UUIDv7 session ids, so a
// session listing sorted by id is also sorted by creation time.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
