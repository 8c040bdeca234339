package services

import (
	"time"

	"github.com/minangbatik/batikhub/internal/server/blobstore"
	"github.com/minangbatik/batikhub/internal/server/models"
)

// BatikView is the outward shape of an entry. URL is resolved from Path each
// time a view is built and is never persisted.
type BatikView struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	Filename           string    `json:"filename"`
	Path               string    `json:"path"`
	OriginalName       string    `json:"original_name"`
	IsMinangkabauBatik bool      `json:"is_minangkabau_batik"`
	BatikName          *string   `json:"batik_name"`
	Description        *string   `json:"description"`
	Origin             *string   `json:"origin"`
	URL                string    `json:"url"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewBatikView(b *models.Batik, blobs blobstore.Store) *BatikView {
	return &BatikView{
		ID:                 b.ID,
		UserID:             b.UserID,
		Filename:           b.Filename,
		Path:               b.Path,
		OriginalName:       b.OriginalName,
		IsMinangkabauBatik: b.IsMinangkabauBatik,
		BatikName:          b.BatikName,
		Description:        b.Description,
		Origin:             b.Origin,
		URL:                blobs.URL(b.Path),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func newBatikViews(list []*models.Batik, blobs blobstore.Store) []*BatikView {
	out := make([]*BatikView, 0, len(list))
	for _, b := range list {
		out = append(out, NewBatikView(b, blobs))
	}
	return out
}

type UserView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func NewUserView(u *models.User) *UserView {
	return &UserView{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

type CommentView struct {
	ID        int64     `json:"id"`
	BatikID   int64     `json:"batik_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      *UserView `json:"user,omitempty"`
}

func NewCommentView(c *models.Comment) *CommentView {
	v := &CommentView{
		ID:        c.ID,
		BatikID:   c.BatikID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
	if c.Author != nil {
		v.User = NewUserView(c.Author)
	}
	return v
}
