// Package httpapi exposes the batikhub services as a JSON HTTP API on echo.
//
// Handlers resolve the caller once in middleware and pass it explicitly to the
// services. All error responses are produced by a single error handler that
// maps the common sentinels to status codes.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/minangbatik/batikhub/internal/logging"
	"github.com/minangbatik/batikhub/internal/server/models"
	"github.com/minangbatik/batikhub/internal/server/services"
)

const (
	// BodyLimit leaves room for a maximal image plus form overhead and base64
	// expansion.
	BodyLimit = "4M"

	shutdownTimeout = 10 * time.Second
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	Logout(ctx context.Context, caller *services.Caller) error
	Authenticate(ctx context.Context, bearer string) (*services.Caller, error)
	Me(ctx context.Context, caller *services.Caller) (*models.User, error)
}

type BatikService interface {
	Submit(ctx context.Context, caller *services.Caller, in services.SubmitInput) (*services.BatikView, error)
	Get(ctx context.Context, id int64) (*services.BatikView, error)
	List(ctx context.Context) ([]*services.BatikView, error)
	ListMine(ctx context.Context, caller *services.Caller) ([]*services.BatikView, error)
	Update(ctx context.Context, caller *services.Caller, id int64, in services.UpdateInput) (*services.BatikView, error)
	Delete(ctx context.Context, caller *services.Caller, id int64) error
	DeleteAll(ctx context.Context, caller *services.Caller) (int64, error)
}

type CommentService interface {
	Add(ctx context.Context, caller *services.Caller, batikID int64, content string) (*models.Comment, error)
	List(ctx context.Context, batikID int64) ([]*models.Comment, error)
	Remove(ctx context.Context, caller *services.Caller, commentID int64) error
}

// FileOpener serves locally stored blobs. Only the local blob backend
// provides one.
type FileOpener interface {
	Open(key string) (*os.File, error)
}

// RequestRecorder receives one observation per finished request.
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, status int, seconds float64)
}

// Options wires the server. Files, Recorder and MetricsHandler are optional.
type Options struct {
	Address        string
	Users          UserService
	Batiks         BatikService
	Comments       CommentService
	Files          FileOpener
	Recorder       RequestRecorder
	MetricsHandler http.Handler
	Logger         logging.Logger
}

type Server struct {
	echo     *echo.Echo
	address  string
	users    UserService
	batiks   BatikService
	comments CommentService
	files    FileOpener
	recorder RequestRecorder
	logger   logging.Logger
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		address:  opts.Address,
		users:    opts.Users,
		batiks:   opts.Batiks,
		comments: opts.Comments,
		files:    opts.Files,
		recorder: opts.Recorder,
		logger:   logger.With("module", "http_server"),
	}
	e.HTTPErrorHandler = s.handleError

	s.setupMiddleware()
	s.setupRoutes(opts.MetricsHandler)
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())
	s.echo.Use(requestLogger(s.logger))
	s.echo.Use(echomw.BodyLimit(BodyLimit))
	if s.recorder != nil {
		s.echo.Use(recordRequests(s.recorder))
	}
}

func (s *Server) setupRoutes(metricsHandler http.Handler) {
	e := s.echo
	e.GET("/health", s.healthCheck)
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	e.POST("/register", s.register)
	e.POST("/login", s.login)
	e.POST("/logout", s.logout, s.requireAuth)
	e.GET("/user", s.me, s.requireAuth)

	e.GET("/batiks", s.listBatiks)
	e.GET("/batiks/:id", s.getBatik)
	e.POST("/batiks/store", s.storeBatik, s.optionalAuth)
	e.PUT("/batiks/:id", s.updateBatik, s.requireAuth)
	e.PATCH("/batiks/:id", s.updateBatik, s.requireAuth)
	e.DELETE("/batiks/:id", s.deleteBatik, s.requireAuth)

	e.GET("/histories", s.listMine, s.requireAuth)
	e.GET("/my-batiks", s.listMine, s.requireAuth)
	e.DELETE("/histories/clear-all", s.clearHistory, s.requireAuth)

	e.GET("/batiks/:id/comments", s.listComments)
	e.POST("/batiks/:id/comments", s.addComment, s.requireAuth)
	e.DELETE("/comments/:id", s.deleteComment, s.requireAuth)

	if s.files != nil {
		e.GET("/storage/*", s.serveFile)
	}
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- s.echo.Start(s.address)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
