package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/logging"
	"github.com/minangbatik/batikhub/internal/server/models"
	"github.com/minangbatik/batikhub/internal/server/services"
)

const validToken = "good-token"

var testCaller = &services.Caller{UserID: 7, TokenID: "jti-7", Name: "Rina", Email: "rina@example.com"}

// ---- fakes ----

type fakeUsers struct {
	registerIn  services.RegisterInput
	registerRes *services.AuthResult
	registerErr error

	loginIn  services.LoginInput
	loginRes *services.AuthResult
	loginErr error

	loggedOut *services.Caller
	logoutErr error

	me    *models.User
	meErr error
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	f.registerIn = in
	return f.registerRes, f.registerErr
}

func (f *fakeUsers) Login(_ context.Context, in services.LoginInput) (*services.AuthResult, error) {
	f.loginIn = in
	return f.loginRes, f.loginErr
}

func (f *fakeUsers) Logout(_ context.Context, caller *services.Caller) error {
	f.loggedOut = caller
	return f.logoutErr
}

func (f *fakeUsers) Authenticate(_ context.Context, bearer string) (*services.Caller, error) {
	if bearer == validToken {
		return testCaller, nil
	}
	return nil, common.ErrorUnauthorized
}

func (f *fakeUsers) Me(_ context.Context, caller *services.Caller) (*models.User, error) {
	if f.me == nil && f.meErr == nil {
		return &models.User{ID: caller.UserID, Name: caller.Name, Email: caller.Email}, nil
	}
	return f.me, f.meErr
}

type fakeBatiks struct {
	calls  int
	caller *services.Caller
	id     int64
	submit services.SubmitInput
	update services.UpdateInput

	view    *services.BatikView
	list    []*services.BatikView
	deleted int64
	err     error
	panic   bool
}

func (f *fakeBatiks) Submit(_ context.Context, caller *services.Caller, in services.SubmitInput) (*services.BatikView, error) {
	f.calls++
	f.caller, f.submit = caller, in
	if f.err != nil {
		return nil, f.err
	}
	if caller == nil {
		return nil, common.ErrorUnauthorized
	}
	return f.view, nil
}

func (f *fakeBatiks) Get(_ context.Context, id int64) (*services.BatikView, error) {
	f.calls++
	f.id = id
	if f.panic {
		panic("boom")
	}
	return f.view, f.err
}

func (f *fakeBatiks) List(context.Context) ([]*services.BatikView, error) {
	f.calls++
	return f.list, f.err
}

func (f *fakeBatiks) ListMine(_ context.Context, caller *services.Caller) ([]*services.BatikView, error) {
	f.calls++
	f.caller = caller
	return f.list, f.err
}

func (f *fakeBatiks) Update(_ context.Context, caller *services.Caller, id int64, in services.UpdateInput) (*services.BatikView, error) {
	f.calls++
	f.caller, f.id, f.update = caller, id, in
	return f.view, f.err
}

func (f *fakeBatiks) Delete(_ context.Context, caller *services.Caller, id int64) error {
	f.calls++
	f.caller, f.id = caller, id
	return f.err
}

func (f *fakeBatiks) DeleteAll(_ context.Context, caller *services.Caller) (int64, error) {
	f.calls++
	f.caller = caller
	return f.deleted, f.err
}

type fakeComments struct {
	caller  *services.Caller
	batikID int64
	content string
	removed int64

	comment *models.Comment
	list    []*models.Comment
	err     error
}

func (f *fakeComments) Add(_ context.Context, caller *services.Caller, batikID int64, content string) (*models.Comment, error) {
	f.caller, f.batikID, f.content = caller, batikID, content
	return f.comment, f.err
}

func (f *fakeComments) List(_ context.Context, batikID int64) ([]*models.Comment, error) {
	f.batikID = batikID
	return f.list, f.err
}

func (f *fakeComments) Remove(_ context.Context, caller *services.Caller, commentID int64) error {
	f.caller, f.removed = caller, commentID
	return f.err
}

type request struct {
	method, route string
	status        int
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []request
}

func (f *fakeRecorder) RecordHTTPRequest(method, route string, status int, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, request{method, route, status})
}

// ---- helpers ----

type testServer struct {
	*Server
	users    *fakeUsers
	batiks   *fakeBatiks
	comments *fakeComments
	recorder *fakeRecorder
}

func newTestServer(t *testing.T, opts ...func(*Options)) *testServer {
	t.Helper()
	ts := &testServer{
		users:    &fakeUsers{},
		batiks:   &fakeBatiks{},
		comments: &fakeComments{},
		recorder: &fakeRecorder{},
	}
	o := Options{
		Address:  "127.0.0.1:0",
		Users:    ts.users,
		Batiks:   ts.batiks,
		Comments: ts.comments,
		Recorder: ts.recorder,
		Logger:   logging.NewDiscardLogger(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	ts.Server = New(o)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func newJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withToken(req *http.Request, token string) *http.Request {
	req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	return req
}

// newMultipartRequest builds a form with the given text fields and, when
// data is non-nil, an "image" file part.
func newMultipartRequest(t *testing.T, method, target string, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if data != nil {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sampleView() *services.BatikView {
	name := "Motif Kawung"
	return &services.BatikView{
		ID:                 1,
		UserID:             testCaller.UserID,
		Filename:           "1700000000_sample.jpg",
		Path:               "batik_images/1700000000_sample.jpg",
		OriginalName:       "sample.jpg",
		IsMinangkabauBatik: true,
		BatikName:          &name,
		URL:                "http://127.0.0.1:8080/storage/batik_images/1700000000_sample.jpg",
		CreatedAt:          time.Unix(1700000000, 0).UTC(),
		UpdatedAt:          time.Unix(1700000000, 0).UTC(),
	}
}
