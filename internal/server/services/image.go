package services

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/minangbatik/batikhub/internal/common"
)

const (
	// MaxImageBytes bounds an uploaded image (2048 KiB).
	MaxImageBytes = 2048 * 1024

	defaultBase64Ext = "jpg"
	maxOriginalName  = 200
)

var (
	allowedExtensions = map[string]bool{"jpeg": true, "jpg": true, "png": true, "gif": true}

	allowedContentTypes = map[string]bool{"image/jpeg": true, "image/png": true, "image/gif": true}

	dataURIPrefix = regexp.MustCompile(`^data:image/([A-Za-z0-9.+-]+);base64,`)

	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// ImageUpload is a binary image as received from a multipart form.
type ImageUpload struct {
	Filename string
	Data     []byte
}

type decodedImage struct {
	// originalName is the client's base filename, safeName its key-safe form.
	originalName string
	safeName     string
	contentType  string
	data         []byte
}

// decodeImage validates whichever image encoding the caller provided and
// records problems in v under "image". A nil result means the image was
// absent or invalid.
func decodeImage(v *common.ValidationError, upload *ImageUpload, b64, name string, required bool) *decodedImage {
	switch {
	case upload != nil:
		return checkImage(v, upload.Filename, extensionOf(upload.Filename), upload.Data)
	case strings.TrimSpace(b64) != "":
		return decodeBase64Image(v, b64, name)
	default:
		if required {
			v.Add("image", "The image field is required.")
		}
		return nil
	}
}

func decodeBase64Image(v *common.ValidationError, raw, name string) *decodedImage {
	raw = strings.TrimSpace(raw)
	ext := defaultBase64Ext
	if m := dataURIPrefix.FindStringSubmatch(raw); m != nil {
		ext = strings.ToLower(m[1])
		raw = raw[len(m[0]):]
	}
	raw = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, raw)

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(raw)
	}
	if err != nil {
		v.Add("image", "The image must be a valid base64 encoded image.")
		return nil
	}

	original := strings.TrimSpace(name)
	switch nameExt := extensionOf(original); {
	case original == "":
		original = "upload." + ext
	case nameExt == "":
		original += "." + ext
	case !allowedExtensions[nameExt]:
		v.Add("image_name", "The image name must end in one of: jpeg, png, jpg, gif.")
		return nil
	}
	return checkImage(v, original, ext, data)
}

func checkImage(v *common.ValidationError, filename, ext string, data []byte) *decodedImage {
	if len(data) == 0 {
		v.Add("image", "The image field is required.")
		return nil
	}
	ok := true
	if len(data) > MaxImageBytes {
		v.Add("image", fmt.Sprintf("The image must not be greater than %d kilobytes.", MaxImageBytes/1024))
		ok = false
	}
	contentType := http.DetectContentType(data)
	if !allowedContentTypes[contentType] {
		v.Add("image", "The image must be an image.")
		ok = false
	}
	if !allowedExtensions[ext] {
		v.Add("image", "The image must be a file of type: jpeg, png, jpg, gif.")
		ok = false
	}
	if !ok {
		return nil
	}
	original := filepath.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if original == "." || original == "/" {
		original = "upload." + ext
	}
	if r := []rune(original); len(r) > maxOriginalName {
		original = string(r[:maxOriginalName])
	}
	return &decodedImage{
		originalName: original,
		safeName:     sanitizeFilename(filename, ext),
		contentType:  contentType,
		data:         data,
	}
}

func extensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// sanitizeFilename keeps the stem of a client-supplied filename, replaces
// anything outside [A-Za-z0-9._-] so it is safe inside a blob key, and always
// ends the result with the validated ext.
func sanitizeFilename(name, ext string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if strings.EqualFold(filepath.Ext(base), "."+ext) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	stem := unsafeNameChars.ReplaceAllString(base, "_")
	stem = strings.Trim(stem, "._")
	if stem == "" {
		stem = "upload"
	}
	suffix := "." + ext
	if limit := maxOriginalName - len(suffix); len(stem) > limit {
		stem = strings.TrimRight(stem[:limit], "._")
	}
	return stem + suffix
}
