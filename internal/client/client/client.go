package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/minangbatik/batikhub/internal/common"
)

const defaultHTTPTimeout = 30 * time.Second

// Client talks to one batikhub server.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for baseURL. token may be empty for public calls.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultHTTPTimeout},
		token:   strings.TrimSpace(token),
	}
}

func (c *Client) SetToken(token string) { c.token = strings.TrimSpace(token) }

// SetTimeout bounds every request. Non-positive values are ignored.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.http.Timeout = d
	}
}

func (c *Client) Token() string { return c.token }

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Register creates an account and keeps the issued token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/register", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.AccessToken)
	return &resp, nil
}

// Login exchanges credentials for a token and keeps it.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.AccessToken)
	return &resp, nil
}

// Logout revokes the current token on the server and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/user", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListBatiks(ctx context.Context) ([]Batik, error) {
	var out []Batik
	err := c.do(ctx, http.MethodGet, "/batiks", nil, &out)
	return out, err
}

func (c *Client) ListMine(ctx context.Context) ([]Batik, error) {
	var out []Batik
	err := c.do(ctx, http.MethodGet, "/my-batiks", nil, &out)
	return out, err
}

func (c *Client) GetBatik(ctx context.Context, id int64) (*Batik, error) {
	var b Batik
	if err := c.do(ctx, http.MethodGet, batikPath(id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Upload submits one image through the intake endpoint as multipart form data.
func (c *Client) Upload(ctx context.Context, up Upload) (*Batik, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct {
		name  string
		value *string
	}{
		{"is_minangkabau_batik", common.StringPtr(strconv.FormatBool(up.IsMinangkabauBatik))},
		{"batik_name", up.BatikName},
		{"description", up.Description},
		{"origin", up.Origin},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := w.WriteField(f.name, *f.value); err != nil {
			return nil, err
		}
	}
	part, err := w.CreateFormFile("image", up.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var resp dataEnvelope[Batik]
	if err := c.send(ctx, http.MethodPost, "/batiks/store", w.FormDataContentType(), &buf, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteBatik(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, batikPath(id), nil, nil)
}

// ClearHistory deletes every entry of the current user and returns how many
// were removed.
func (c *Client) ClearHistory(ctx context.Context) (int64, error) {
	var resp dataEnvelope[struct {
		Deleted int64 `json:"deleted"`
	}]
	if err := c.do(ctx, http.MethodDelete, "/histories/clear-all", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Data.Deleted, nil
}

func (c *Client) AddComment(ctx context.Context, batikID int64, content string) (*Comment, error) {
	var resp dataEnvelope[Comment]
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, batikPath(batikID)+"/comments", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Comments(ctx context.Context, batikID int64) ([]Comment, error) {
	var out []Comment
	err := c.do(ctx, http.MethodGet, batikPath(batikID)+"/comments", nil, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+strconv.FormatInt(id, 10), nil, nil)
}

func batikPath(id int64) string {
	return "/batiks/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, contentType, reader, out)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errResp errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		apiErr.Message = errResp.Message
		apiErr.Fields = errResp.Errors
	}
	return apiErr
}
