package models

import "time"

// Batik is one catalog entry: an uploaded image and its classification.
// The public URL is not part of the record; it is resolved from Path on read.
type Batik struct {
	ID     int64
	UserID int64

	// Filename is the generated storage name, Path the blob key it lives at.
	Filename     string
	Path         string
	OriginalName string

	IsMinangkabauBatik bool
	BatikName          *string
	Description        *string
	Origin             *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
