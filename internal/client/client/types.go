package client

import "time"

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type AuthResponse struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

type Batik struct {
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

type Comment struct {
	ID        int64     `json:"id"`
	BatikID   int64     `json:"batik_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `json:"user,omitempty"`
}

// Upload describes one intake submission. Nil text fields are not sent.
type Upload struct {
	Filename           string
	Data               []byte
	IsMinangkabauBatik bool
	BatikName          *string
	Description        *string
	Origin             *string
}

type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

type dataEnvelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}
