package httpapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/logging"
	"github.com/minangbatik/batikhub/internal/server/services"
)

const callerKey = "caller"

// requireAuth rejects requests without a valid bearer token.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c.Request().Header.Get(common.AuthorizationHeaderName))
		if token == "" {
			return common.ErrorUnauthorized
		}
		caller, err := s.users.Authenticate(c.Request().Context(), token)
		if err != nil {
			return err
		}
		c.Set(callerKey, caller)
		return next(c)
	}
}

// optionalAuth resolves the caller when it can and otherwise leaves the
// decision to the handler. Intake validates its payload before it looks at
// the caller.
func (s *Server) optionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c.Request().Header.Get(common.AuthorizationHeaderName))
		if token != "" {
			if caller, err := s.users.Authenticate(c.Request().Context(), token); err == nil {
				c.Set(callerKey, caller)
			}
		}
		return next(c)
	}
}

// callerFrom returns the identity stored by the auth middleware, or nil.
func callerFrom(c echo.Context) *services.Caller {
	caller, _ := c.Get(callerKey).(*services.Caller)
	return caller
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

func requestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"ip", v.RemoteIP,
				"latency", v.Latency,
			}
			if v.Error != nil {
				args = append(args, "error", v.Error.Error())
			}
			logger.Info(c.Request().Context(), "request", args...)
			return nil
		},
	})
}

// recordRequests renders handler errors itself so that the recorded status is
// the one the client receives. The error is still returned for the request
// logger; the error handler skips committed responses.
func recordRequests(rec RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			rec.RecordHTTPRequest(c.Request().Method, route, c.Response().Status, time.Since(start).Seconds())
			return err
		}
	}
}
