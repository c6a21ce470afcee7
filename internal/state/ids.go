package state

import "github.com/google/uuid"

// NewPathID returns a unique identifier for a finalized stroke.
func NewPathID() string {
	return uuid.NewString()
}
