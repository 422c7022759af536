package domain

import "time"

// User is a client identified by phone number. Users are provisioned on
// first login and never deleted.
type User struct {
	ID        int64
	Phone     string
	FullName  string
	CreatedAt time.Time
}
