package httpapi

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/server/blobstore"
)

// imageContentTypes maps the stored image extensions to the only content
// types /storage answers with.
var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// serveFile streams a locally stored blob. Unknown and malformed keys are
// both answered with 404.
func (s *Server) serveFile(c echo.Context) error {
	key := c.Param("*")
	f, err := s.files.Open(key)
	if err != nil {
		if !errors.Is(err, blobstore.ErrBlobNotFound) {
			s.logger.Debug(c.Request().Context(), "storage lookup rejected", "key", key, "error", err)
		}
		return common.ErrorNotFound
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return common.ErrorNotFound
	}
	h := c.Response().Header()
	h.Set("X-Content-Type-Options", "nosniff")
	if ct, ok := imageContentTypes[strings.ToLower(path.Ext(key))]; ok {
		h.Set(echo.HeaderContentType, ct)
	} else {
		h.Set(echo.HeaderContentType, echo.MIMEOctetStream)
		h.Set(echo.HeaderContentDisposition, "attachment")
	}
	http.ServeContent(c.Response(), c.Request(), path.Base(key), info.ModTime(), f)
	return nil
}
