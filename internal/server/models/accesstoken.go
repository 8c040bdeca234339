package models

import "time"

// AccessToken is the server-side record of an issued bearer token. A token
// whose row is gone has been revoked.
type AccessToken struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
