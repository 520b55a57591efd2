// Package mailbox defines the message record shared by the mail sources and
// the aggregation, and the ignore rules applied to a fetched batch.
package mailbox

import "context"

// Message holds the fields of a fetched email that a run looks at.
type Message struct {
	ID      string
	From    string // bare sender address, lowercased; empty if the header had none
	Subject string
	Read    bool
}

// Fetcher returns at most maxCount messages from folder. On success the slice is
// never nil; an empty folder yields an empty slice.
type Fetcher interface {
	Fetch(ctx context.Context, folder string, maxCount int) ([]Message, error)
}
