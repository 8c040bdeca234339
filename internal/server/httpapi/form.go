package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/server/services"
)

// batikForm is the transport-neutral content of a store or update request.
type batikForm struct {
	image       *services.ImageUpload
	imageBase64 string
	imageName   string

	isMinangkabauBatik *string
	batikName          *string
	description        *string
	origin             *string
}

func (f batikForm) submitInput() services.SubmitInput {
	return services.SubmitInput{
		Image:              f.image,
		ImageBase64:        f.imageBase64,
		ImageName:          f.imageName,
		IsMinangkabauBatik: f.isMinangkabauBatik,
		BatikName:          f.batikName,
		Description:        f.description,
		Origin:             f.origin,
	}
}

func (f batikForm) updateInput() services.UpdateInput {
	return services.UpdateInput{
		Image:              f.image,
		ImageBase64:        f.imageBase64,
		ImageName:          f.imageName,
		IsMinangkabauBatik: f.isMinangkabauBatik,
		BatikName:          f.batikName,
		Description:        f.description,
		Origin:             f.origin,
	}
}

// batikJSON accepts the classification flag as a JSON string or boolean.
type batikJSON struct {
	Image              *string         `json:"image"`
	ImageName          *string         `json:"image_name"`
	IsMinangkabauBatik json.RawMessage `json:"is_minangkabau_batik"`
	BatikName          *string         `json:"batik_name"`
	Description        *string         `json:"description"`
	Origin             *string         `json:"origin"`
}

func readBatikForm(c echo.Context) (batikForm, error) {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	mediaType, _, _ := mime.ParseMediaType(ctype)
	if mediaType == echo.MIMEApplicationJSON {
		return readBatikJSON(c.Request().Body)
	}
	return readBatikValues(c, mediaType == echo.MIMEMultipartForm)
}

func readBatikJSON(body io.Reader) (batikForm, error) {
	var in batikJSON
	if err := json.NewDecoder(body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		return batikForm{}, echo.NewHTTPError(http.StatusBadRequest, "Malformed JSON body.")
	}

	f := batikForm{
		batikName:   in.BatikName,
		description: in.Description,
		origin:      in.Origin,
	}
	if in.Image != nil {
		f.imageBase64 = *in.Image
	}
	if in.ImageName != nil {
		f.imageName = *in.ImageName
	}
	f.isMinangkabauBatik = flagFromJSON(in.IsMinangkabauBatik)
	return f, nil
}

// flagFromJSON turns the raw flag into the text the services validate.
// JSON booleans become "true"/"false"; any other literal is passed through
// verbatim so that it fails validation.
func flagFromJSON(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return common.StringPtr(strconv.FormatBool(b))
	}
	return common.StringPtr(string(raw))
}

func readBatikValues(c echo.Context, multipart bool) (batikForm, error) {
	params, err := c.FormParams()
	if err != nil {
		return batikForm{}, echo.NewHTTPError(http.StatusBadRequest, "Malformed form body.")
	}
	value := func(key string) *string {
		if vs, ok := params[key]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}

	f := batikForm{
		isMinangkabauBatik: value("is_minangkabau_batik"),
		batikName:          value("batik_name"),
		description:        value("description"),
		origin:             value("origin"),
	}
	if v := value("image_name"); v != nil {
		f.imageName = *v
	}

	if multipart {
		upload, err := readUpload(c, "image")
		if err != nil {
			return batikForm{}, err
		}
		f.image = upload
	}
	if f.image == nil {
		if v := value("image"); v != nil {
			f.imageBase64 = *v
		}
	}
	return f, nil
}

// readUpload reads at most one byte more than the image bound so that the
// service can tell an oversized file from a maximal one.
func readUpload(c echo.Context, field string) (*services.ImageUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Malformed form body.")
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &services.ImageUpload{Filename: fh.Filename, Data: data}, nil
}

// pathID parses a numeric path parameter. Ids that cannot exist are reported
// as missing.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}
