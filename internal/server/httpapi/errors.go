package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minangbatik/batikhub/internal/common"
)

const invalidDataMessage = "The given data was invalid."

type errorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// handleError is the single place where errors become responses.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.errorResponse(c, err)
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Error(c.Request().Context(), "writing error response failed", "error", err)
	}
}

func (s *Server) errorResponse(c echo.Context, err error) (int, errorResponse) {
	var validation *common.ValidationError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, errorResponse{Message: invalidDataMessage, Errors: validation.Fields}
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, errorResponse{Message: "Unauthenticated."}
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, errorResponse{Message: "This action is unauthorized."}
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, errorResponse{Message: "Not found."}
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, errorResponse{Message: msg}
	}

	s.logger.Error(c.Request().Context(), "request failed",
		"method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
	return http.StatusInternalServerError, errorResponse{Message: "internal error"}
}
