package entities

import "time"

// ForwardLogEntry records one successful homework forward. Appended per
// successful dispatch, queried by trailing time window for summaries.
type ForwardLogEntry struct {
	Timestamp   time.Time
	SenderName  string
	MediaType   string
	Snippet     string
	Destination int64
}

// SenderActivity tracks the last message seen from a sender, overwritten on
// every inbound message regardless of classification outcome.
type SenderActivity struct {
	SenderID int64
	Name     string
	Snippet  string
	LastSeen time.Time
}
