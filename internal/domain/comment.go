package domain

import (
	"fmt"
	"time"
)

// AuthorType indicates which side of the conversation wrote a comment.
type AuthorType string

const (
	AuthorTypeClient  AuthorType = "client"
	AuthorTypeManager AuthorType = "manager"
)

// ParseAuthorType validates a raw author type string.
func ParseAuthorType(raw string) (AuthorType, error) {
	authorType := AuthorType(raw)
	switch authorType {
	case AuthorTypeClient, AuthorTypeManager:
		return authorType, nil
	}
	return "", fmt.Errorf("unknown author type %q", raw)
}

// Comment is a single entry in a ticket thread. Comments are immutable after
// creation except for the client read flag.
type Comment struct {
	ID           int64
	TicketID     int64
	AuthorType   AuthorType
	AuthorName   string
	Text         string
	CreatedAt    time.Time
	ReadByClient bool
}
