package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/logging"
	"github.com/minangbatik/batikhub/internal/server/blobstore"
	"github.com/minangbatik/batikhub/internal/server/models"
	"github.com/minangbatik/batikhub/internal/server/repositories/repomanager"
)

const (
	// ImageDir is the blob key namespace for catalog images.
	ImageDir = "batik_images"

	DefaultBatikName   = "Not a Minangkabau batik"
	DefaultDescription = "Image is not a Minangkabau batik motif"

	maxLabelLength = 255
	maxKeyAttempts = 3
)

// Intake outcomes reported to the IntakeObserver.
const (
	IntakeCreated      = "created"
	IntakeInvalid      = "invalid"
	IntakeUnauthorized = "unauthorized"
	IntakeFailed       = "error"
)

// IntakeObserver is notified once per Submit call with its outcome.
type IntakeObserver interface {
	ObserveIntake(result string)
}

type noopObserver struct{}

func (noopObserver) ObserveIntake(string) {}

// SubmitInput is one contribution: either Image or ImageBase64 carries the
// picture. Nil text fields mean "not supplied".
type SubmitInput struct {
	Image       *ImageUpload
	ImageBase64 string
	// ImageName names a base64 payload; it is ignored for binary uploads.
	ImageName string

	IsMinangkabauBatik *string
	BatikName          *string
	Description        *string
	Origin             *string
}

// UpdateInput is a partial update. Non-nil fields are applied; an empty
// string clears a text field.
type UpdateInput struct {
	Image       *ImageUpload
	ImageBase64 string
	ImageName   string

	IsMinangkabauBatik *string
	BatikName          *string
	Description        *string
	Origin             *string
}

// BatikService implements the intake pipeline and the owner-gated mutations
// of catalog entries.
type BatikService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	log         logging.Logger
	observer    IntakeObserver

	now         func() time.Time
	randomToken func() (string, error)
}

func NewBatikService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store, log logging.Logger) *BatikService {
	return &BatikService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		log:         log.With("module", "batiks"),
		observer:    noopObserver{},
		now:         time.Now,
		randomToken: func() (string, error) { return common.MakeRandHexString(8) },
	}
}

// SetObserver installs o as the intake outcome sink.
func (s *BatikService) SetObserver(o IntakeObserver) {
	if o == nil {
		o = noopObserver{}
	}
	s.observer = o
}

// Submit runs the intake pipeline. Input is validated before the caller is
// checked, so an anonymous request with a bad payload gets a ValidationError.
func (s *BatikService) Submit(ctx context.Context, caller *Caller, in SubmitInput) (*BatikView, error) {
	v := common.NewValidationError()
	img := decodeImage(v, in.Image, in.ImageBase64, in.ImageName, true)
	flag := parseFlag(v, in.IsMinangkabauBatik, true)
	validateLabels(v, in.BatikName, in.Origin)
	if err := v.OrNil(); err != nil {
		s.observer.ObserveIntake(IntakeInvalid)
		return nil, err
	}

	if caller == nil {
		s.observer.ObserveIntake(IntakeUnauthorized)
		return nil, common.ErrorUnauthorized
	}

	filename, key, err := s.storeImage(ctx, img)
	if err != nil {
		s.observer.ObserveIntake(IntakeFailed)
		return nil, err
	}

	batik := &models.Batik{
		UserID:             caller.UserID,
		Filename:           filename,
		Path:               key,
		OriginalName:       img.originalName,
		IsMinangkabauBatik: *flag,
		BatikName:          normalizeText(in.BatikName),
		Description:        normalizeText(in.Description),
		Origin:             normalizeText(in.Origin),
	}
	applyDefaults(batik)

	created, err := s.repomanager.Batiks(s.db).Create(ctx, batik)
	if err != nil {
		// The blob stays behind; there is no compensation step.
		s.log.Error(ctx, "batik insert failed after blob write",
			"op", "submit", "user_id", caller.UserID, "path", key, "error", err)
		s.observer.ObserveIntake(IntakeFailed)
		return nil, storageError("submit", err)
	}

	s.log.Info(ctx, "batik stored", "id", created.ID, "user_id", caller.UserID, "path", key)
	s.observer.ObserveIntake(IntakeCreated)
	return NewBatikView(created, s.blobs), nil
}

// Get returns one entry. It is public.
func (s *BatikService) Get(ctx context.Context, id int64) (*BatikView, error) {
	b, err := s.repomanager.Batiks(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.log.Error(ctx, "batik lookup failed", "op", "get", "id", id, "error", err)
		return nil, storageError("get", err)
	}
	return NewBatikView(b, s.blobs), nil
}

// List returns every entry, newest first.
func (s *BatikService) List(ctx context.Context) ([]*BatikView, error) {
	list, err := s.repomanager.Batiks(s.db).List(ctx)
	if err != nil {
		s.log.Error(ctx, "batik list failed", "op", "list", "error", err)
		return nil, storageError("list", err)
	}
	return newBatikViews(list, s.blobs), nil
}

// ListMine returns the caller's own entries.
func (s *BatikService) ListMine(ctx context.Context, caller *Caller) ([]*BatikView, error) {
	if caller == nil {
		return nil, common.ErrorUnauthorized
	}
	list, err := s.repomanager.Batiks(s.db).ListByOwner(ctx, caller.UserID)
	if err != nil {
		s.log.Error(ctx, "batik list failed", "op", "list_mine", "user_id", caller.UserID, "error", err)
		return nil, storageError("list mine", err)
	}
	return newBatikViews(list, s.blobs), nil
}

// Update applies in to an entry owned by caller. A replacement image is
// stored before the old blob is removed.
func (s *BatikService) Update(ctx context.Context, caller *Caller, id int64, in UpdateInput) (*BatikView, error) {
	if caller == nil {
		return nil, common.ErrorUnauthorized
	}
	repo := s.repomanager.Batiks(s.db)

	batik, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.log.Error(ctx, "batik lookup failed", "op", "update", "id", id, "error", err)
		return nil, storageError("update", err)
	}
	if batik.UserID != caller.UserID {
		return nil, common.ErrorForbidden
	}

	v := common.NewValidationError()
	img := decodeImage(v, in.Image, in.ImageBase64, in.ImageName, false)
	flag := parseFlag(v, in.IsMinangkabauBatik, false)
	validateLabels(v, in.BatikName, in.Origin)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	oldPath := batik.Path
	if img != nil {
		filename, key, err := s.storeImage(ctx, img)
		if err != nil {
			return nil, err
		}
		batik.Filename = filename
		batik.Path = key
		batik.OriginalName = img.originalName
	}
	if flag != nil {
		if *flag && !batik.IsMinangkabauBatik {
			clearDefaults(batik)
		}
		batik.IsMinangkabauBatik = *flag
	}
	if in.BatikName != nil {
		batik.BatikName = normalizeText(in.BatikName)
	}
	if in.Description != nil {
		batik.Description = normalizeText(in.Description)
	}
	if in.Origin != nil {
		batik.Origin = normalizeText(in.Origin)
	}
	applyDefaults(batik)

	if err := repo.Update(ctx, batik); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.log.Error(ctx, "batik update failed", "op", "update", "id", id, "error", err)
		return nil, storageError("update", err)
	}

	if img != nil && oldPath != batik.Path {
		s.deleteBlob(ctx, "update", id, oldPath)
	}

	return NewBatikView(batik, s.blobs), nil
}

// Delete removes one entry of caller. Entries of other users look absent.
func (s *BatikService) Delete(ctx context.Context, caller *Caller, id int64) error {
	if caller == nil {
		return common.ErrorUnauthorized
	}
	repo := s.repomanager.Batiks(s.db)

	batik, err := repo.GetByIDAndOwner(ctx, id, caller.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		s.log.Error(ctx, "batik lookup failed", "op", "delete", "id", id, "error", err)
		return storageError("delete", err)
	}

	s.deleteBlob(ctx, "delete", id, batik.Path)

	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		s.log.Error(ctx, "batik delete failed", "op", "delete", "id", id, "error", err)
		return storageError("delete", err)
	}
	s.log.Info(ctx, "batik deleted", "id", id, "user_id", caller.UserID)
	return nil
}

// DeleteAll removes every entry of caller and reports how many went away.
// Blob failures do not stop the bulk record delete.
func (s *BatikService) DeleteAll(ctx context.Context, caller *Caller) (int64, error) {
	if caller == nil {
		return 0, common.ErrorUnauthorized
	}
	repo := s.repomanager.Batiks(s.db)

	list, err := repo.ListByOwner(ctx, caller.UserID)
	if err != nil {
		s.log.Error(ctx, "batik list failed", "op", "delete_all", "user_id", caller.UserID, "error", err)
		return 0, storageError("delete all", err)
	}
	if len(list) == 0 {
		return 0, fmt.Errorf("nothing to delete: %w", common.ErrorNotFound)
	}

	for _, b := range list {
		s.deleteBlob(ctx, "delete_all", b.ID, b.Path)
	}

	n, err := repo.DeleteByOwner(ctx, caller.UserID)
	if err != nil {
		s.log.Error(ctx, "bulk delete failed", "op", "delete_all", "user_id", caller.UserID, "error", err)
		return 0, storageError("delete all", err)
	}
	s.log.Info(ctx, "batiks cleared", "user_id", caller.UserID, "count", n)
	return n, nil
}

// storeImage derives a key that does not overwrite an existing blob and
// writes img there. The store refuses taken keys, so a writer that loses a
// race for the plain key retries with a random token.
func (s *BatikService) storeImage(ctx context.Context, img *decodedImage) (string, string, error) {
	ts := s.now().Unix()
	key := path.Join(ImageDir, fmt.Sprintf("%d_%s", ts, img.safeName))

	exists, err := s.blobs.Exists(ctx, key)
	if err != nil {
		s.log.Error(ctx, "blob exists check failed", "op", "store_image", "path", key, "error", err)
		return "", "", storageError("store image", err)
	}

	for attempt := 0; ; attempt++ {
		if exists {
			if attempt > maxKeyAttempts {
				s.log.Error(ctx, "no free blob key", "op", "store_image", "name", img.safeName, "attempts", attempt)
				return "", "", fmt.Errorf("store image: %w: no free key", common.ErrorStorage)
			}
			token, err := s.randomToken()
			if err != nil {
				return "", "", fmt.Errorf("%w: %w", common.ErrorInternal, err)
			}
			key = path.Join(ImageDir, fmt.Sprintf("%d_%s_%s", ts, token, img.safeName))
		}

		stored, err := s.blobs.Put(ctx, key, bytes.NewReader(img.data), img.contentType)
		if errors.Is(err, blobstore.ErrBlobExists) {
			s.log.Debug(ctx, "blob key taken, retrying", "op", "store_image", "path", key)
			exists = true
			continue
		}
		if err != nil {
			s.log.Error(ctx, "blob write failed", "op", "store_image", "path", key, "error", err)
			return "", "", storageError("store image", err)
		}
		if stored == "" {
			s.log.Error(ctx, "blob write returned no key", "op", "store_image", "path", key)
			return "", "", fmt.Errorf("store image: %w", common.ErrorStorage)
		}
		return path.Base(stored), stored, nil
	}
}

// deleteBlob is best effort: a missing blob is a warning, any other failure is
// logged and swallowed.
func (s *BatikService) deleteBlob(ctx context.Context, op string, id int64, key string) {
	if key == "" {
		return
	}
	err := s.blobs.Delete(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, blobstore.ErrBlobNotFound):
		s.log.Warn(ctx, "blob already missing", "op", op, "id", id, "path", key)
	default:
		s.log.Error(ctx, "blob delete failed", "op", op, "id", id, "path", key, "error", err)
	}
}

// parseFlag accepts only the literal strings "true" and "false".
func parseFlag(v *common.ValidationError, raw *string, required bool) *bool {
	if raw == nil {
		if required {
			v.Add("is_minangkabau_batik", "The is minangkabau batik field is required.")
		}
		return nil
	}
	var b bool
	switch *raw {
	case "true":
		b = true
	case "false":
		b = false
	case "":
		if required {
			v.Add("is_minangkabau_batik", "The is minangkabau batik field is required.")
			return nil
		}
		v.Add("is_minangkabau_batik", "The is minangkabau batik field must be true or false.")
		return nil
	default:
		v.Add("is_minangkabau_batik", "The is minangkabau batik field must be true or false.")
		return nil
	}
	return &b
}

func validateLabels(v *common.ValidationError, name, origin *string) {
	if name != nil && utf8.RuneCountInString(*name) > maxLabelLength {
		v.Add("batik_name", fmt.Sprintf("The batik name must not be greater than %d characters.", maxLabelLength))
	}
	if origin != nil && utf8.RuneCountInString(*origin) > maxLabelLength {
		v.Add("origin", fmt.Sprintf("The origin must not be greater than %d characters.", maxLabelLength))
	}
}

// normalizeText trims p and maps blank values to nil.
func normalizeText(p *string) *string {
	if p == nil {
		return nil
	}
	t := strings.TrimSpace(*p)
	if t == "" {
		return nil
	}
	return &t
}

// applyDefaults fills name and description of a negative classification.
func applyDefaults(b *models.Batik) {
	if b.IsMinangkabauBatik {
		return
	}
	if b.BatikName == nil {
		b.BatikName = common.StringPtr(DefaultBatikName)
	}
	if b.Description == nil {
		b.Description = common.StringPtr(DefaultDescription)
	}
}

// clearDefaults drops the system texts of a negative classification so an
// entry reclassified as Minangkabau batik does not keep them.
func clearDefaults(b *models.Batik) {
	if common.StringValue(b.BatikName) == DefaultBatikName {
		b.BatikName = nil
	}
	if common.StringValue(b.Description) == DefaultDescription {
		b.Description = nil
	}
}
