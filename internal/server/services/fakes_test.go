package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/dbx"
	"github.com/minangbatik/batikhub/internal/server/blobstore"
	"github.com/minangbatik/batikhub/internal/server/models"
	"github.com/minangbatik/batikhub/internal/server/repositories/accesstokens"
	"github.com/minangbatik/batikhub/internal/server/repositories/batiks"
	"github.com/minangbatik/batikhub/internal/server/repositories/comments"
	"github.com/minangbatik/batikhub/internal/server/repositories/repomanager"
	"github.com/minangbatik/batikhub/internal/server/repositories/users"
)

var (
	jpegBytes = []byte("\xFF\xD8\xFF\xE0\x00\x10JFIF\x00fake-jpeg")
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake-png")
	gifBytes  = []byte("GIF89a\x01\x00\x01\x00fake-gif")
)

// memStore backs every fake repository. The DBTX handed to the manager is
// ignored, so transactions are not simulated.
type memStore struct {
	mu sync.Mutex

	users    map[int64]*models.User
	tokens   map[string]*models.AccessToken
	batiks   map[int64]*models.Batik
	comments map[int64]*models.Comment
	nextID   int64

	userCreateErr  error
	tokenCreateErr error
	batikGetErr    error
	batikCreateErr error
	batikUpdateErr error
	batikDeleteErr error
	batikBulkErr   error
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]*models.User{},
		tokens:   map[string]*models.AccessToken{},
		batiks:   map[int64]*models.Batik{},
		comments: map[int64]*models.Comment{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addUser(name, email string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: s.id(), Name: name, Email: email, CreatedAt: time.Now()}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addBatik(owner int64, path string) *models.Batik {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &models.Batik{
		ID: s.id(), UserID: owner, Filename: path, Path: ImageDir + "/" + path, OriginalName: path,
		IsMinangkabauBatik: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	s.batiks[b.ID] = b
	cp := *b
	return &cp
}

type fakeManager struct {
	repomanager.RepositoryManager
	st *memStore
}

func (m *fakeManager) Users(dbx.DBTX) users.Repository { return &fakeUsers{m.st} }
func (m *fakeManager) AccessTokens(dbx.DBTX) accesstokens.Repository { return &fakeTokens{m.st} }
func (m *fakeManager) Batiks(dbx.DBTX) batiks.Repository { return &fakeBatiks{m.st} }
func (m *fakeManager) Comments(dbx.DBTX) comments.Repository { return &fakeComments{m.st} }

type fakeUsers struct{ st *memStore }

func (r *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.userCreateErr != nil {
		return nil, r.st.userCreateErr
	}
	for _, existing := range r.st.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = r.st.id()
	u.CreatedAt = time.Now()
	cp := *u
	r.st.users[u.ID] = &cp
	return u, nil
}

func (r *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, u := range r.st.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeTokens struct{ st *memStore }

func (r *fakeTokens) Create(_ context.Context, t *models.AccessToken) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.tokenCreateErr != nil {
		return r.st.tokenCreateErr
	}
	cp := *t
	r.st.tokens[t.ID] = &cp
	return nil
}

func (r *fakeTokens) Find(_ context.Context, id string) (*models.AccessToken, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	t, ok := r.st.tokens[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTokens) Delete(_ context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	delete(r.st.tokens, id)
	return nil
}

func (r *fakeTokens) DeleteByUser(_ context.Context, userID int64) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for id, t := range r.st.tokens {
		if t.UserID == userID {
			delete(r.st.tokens, id)
		}
	}
	return nil
}

type fakeBatiks struct{ st *memStore }

func (r *fakeBatiks) Create(_ context.Context, b *models.Batik) (*models.Batik, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.batikCreateErr != nil {
		return nil, r.st.batikCreateErr
	}
	b.ID = r.st.id()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	r.st.batiks[b.ID] = &cp
	return b, nil
}

func (r *fakeBatiks) GetByID(_ context.Context, id int64) (*models.Batik, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.batikGetErr != nil {
		return nil, r.st.batikGetErr
	}
	b, ok := r.st.batiks[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBatiks) GetByIDAndOwner(ctx context.Context, id, userID int64) (*models.Batik, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return b, nil
}

func (r *fakeBatiks) List(_ context.Context) ([]*models.Batik, error) {
	return r.filter(func(*models.Batik) bool { return true }), nil
}

func (r *fakeBatiks) ListByOwner(_ context.Context, userID int64) ([]*models.Batik, error) {
	return r.filter(func(b *models.Batik) bool { return b.UserID == userID }), nil
}

func (r *fakeBatiks) filter(keep func(*models.Batik) bool) []*models.Batik {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]*models.Batik, 0)
	for _, b := range r.st.batiks {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *fakeBatiks) Update(_ context.Context, b *models.Batik) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.batikUpdateErr != nil {
		return r.st.batikUpdateErr
	}
	existing, ok := r.st.batiks[b.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cp := *b
	cp.UserID = existing.UserID
	cp.UpdatedAt = time.Now()
	b.UpdatedAt = cp.UpdatedAt
	r.st.batiks[b.ID] = &cp
	return nil
}

func (r *fakeBatiks) Delete(_ context.Context, id int64) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.batikDeleteErr != nil {
		return r.st.batikDeleteErr
	}
	if _, ok := r.st.batiks[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.st.batiks, id)
	r.st.cascadeComments(id)
	return nil
}

func (r *fakeBatiks) DeleteByOwner(_ context.Context, userID int64) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.batikBulkErr != nil {
		return 0, r.st.batikBulkErr
	}
	var n int64
	for id, b := range r.st.batiks {
		if b.UserID == userID {
			delete(r.st.batiks, id)
			r.st.cascadeComments(id)
			n++
		}
	}
	return n, nil
}

// cascadeComments mirrors ON DELETE CASCADE. Caller holds the lock.
func (s *memStore) cascadeComments(batikID int64) {
	for id, c := range s.comments {
		if c.BatikID == batikID {
			delete(s.comments, id)
		}
	}
}

type fakeComments struct{ st *memStore }

func (r *fakeComments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.batiks[c.BatikID]; !ok {
		return nil, common.ErrorNotFound
	}
	c.ID = r.st.id()
	c.CreatedAt = time.Now()
	cp := *c
	r.st.comments[c.ID] = &cp
	return c, nil
}

func (r *fakeComments) GetByID(_ context.Context, id int64) (*models.Comment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c, ok := r.st.comments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeComments) ListByBatik(_ context.Context, batikID int64) ([]*models.Comment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]*models.Comment, 0)
	for _, c := range r.st.comments {
		if c.BatikID != batikID {
			continue
		}
		cp := *c
		if u, ok := r.st.users[c.UserID]; ok {
			author := *u
			cp.Author = &author
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeComments) Delete(_ context.Context, id int64) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.comments[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.st.comments, id)
	return nil
}

// fakeBlobs is an in-memory blobstore.Store.
type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []string
	deletes []string

	existsErr error
	putErr    error
	deleteErr error
	emptyKey  bool
	// staleExists makes Exists always report false, as a writer that lost a
	// race after its check would see.
	staleExists bool
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (f *fakeBlobs) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	if f.staleExists {
		return false, nil
	}
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeBlobs) Put(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	if _, ok := f.objects[key]; ok {
		return "", fmt.Errorf("%w: %s", blobstore.ErrBlobExists, key)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	f.objects[key] = buf.Bytes()
	f.puts = append(f.puts, key)
	if f.emptyKey {
		return "", nil
	}
	return key, nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.objects[key]; !ok {
		return fmt.Errorf("%w: %s", blobstore.ErrBlobNotFound, key)
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) URL(key string) string {
	return "http://blobs.test/" + key
}

func (f *fakeBlobs) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ObserveIntake(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[result]++
}
