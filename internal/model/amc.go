package model

import "time"

// AmcEntry represents an Asset Management Company (fund family) as it
// appears in the NAV feed. The display name is the identity: exactly one
// entry exists per distinct family name string.
type AmcEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
