package models

import "time"

type Comment struct {
	ID        int64
	BatikID   int64
	UserID    int64
	Content   string
	CreatedAt time.Time

	// Author is filled by queries that join users; nil otherwise.
	Author *User
}
