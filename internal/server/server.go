// Package server exposes the conversion service over HTTP: the submission
// form, conversion, cached page delivery, the admin listing and a health
// probe.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	md2codelab "github.com/alnah/go-md2codelab"
	"github.com/alnah/go-md2codelab/internal/assets"
	"github.com/alnah/go-md2codelab/internal/dateutil"
	"github.com/alnah/go-md2codelab/internal/logging"
)

// Sentinel errors.
var (
	ErrListen        = errors.New("cannot listen")
	ErrTemplateParse = errors.New("failed to parse page template")
)

// Defaults.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	maxFormSize            = 64 << 10
	shortURLLength         = 50
)

// Converter is the part of md2codelab.Service the server depends on.
type Converter interface {
	Convert(ctx context.Context, url string) (*md2codelab.Record, error)
	View(ctx context.Context, id string) (*md2codelab.Record, error)
	List(ctx context.Context, limit int) ([]*md2codelab.Record, error)
}

// Server routes HTTP requests to a Converter.
type Server struct {
	svc             Converter
	log             logging.Logger
	allowedPrefix   string
	viewsLimit      int
	dates           *dateutil.Formatter
	loader          assets.AssetLoader
	now             func() time.Time
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration

	index    *template.Template
	views    *template.Template
	notFound *template.Template
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for access and conversion events.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAllowedPrefix sets the prefix shown on the form and in error messages.
// It does not enforce anything; the Converter's fetcher does.
func WithAllowedPrefix(prefix string) Option {
	return func(s *Server) {
		s.allowedPrefix = prefix
	}
}

// WithViewsLimit sets the number of rows on the listing page.
func WithViewsLimit(n int) Option {
	return func(s *Server) {
		s.viewsLimit = n
	}
}

// WithDateFormatter sets how listing timestamps are shown.
func WithDateFormatter(f *dateutil.Formatter) Option {
	return func(s *Server) {
		if f != nil {
			s.dates = f
		}
	}
}

// WithAssets sets the loader for the form, listing and not-found templates.
func WithAssets(loader assets.AssetLoader) Option {
	return func(s *Server) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// WithClock sets the time source for the health probe.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithTimeouts sets the HTTP read, write and shutdown timeouts.
// Zero values keep the defaults.
func WithTimeouts(read, write, shutdown time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
		if shutdown > 0 {
			s.shutdownTimeout = shutdown
		}
	}
}

// New creates a Server and parses its page templates.
// Panics if svc is nil (programmer error).
func New(svc Converter, opts ...Option) (*Server, error) {
	if svc == nil {
		panic("server: New requires a converter")
	}

	s := &Server{
		svc:             svc,
		log:             logging.Nop(),
		viewsLimit:      md2codelab.DefaultListLimit,
		now:             time.Now,
		readTimeout:     DefaultReadTimeout,
		writeTimeout:    DefaultWriteTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.loader == nil {
		s.loader = assets.NewEmbeddedLoader()
	}
	if s.dates == nil {
		f, err := dateutil.NewFormatter(dateutil.DefaultDateFormat, time.UTC)
		if err != nil {
			return nil, err
		}
		s.dates = f
	}

	var err error
	if s.index, err = s.parse(assets.IndexTemplate); err != nil {
		return nil, err
	}
	if s.views, err = s.parse(assets.ViewsTemplate); err != nil {
		return nil, err
	}
	if s.notFound, err = s.parse(assets.NotFoundTemplate); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) parse(name string) (*template.Template, error) {
	src, err := s.loader.LoadTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("loading %s template: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateParse, name, err)
	}
	return tmpl, nil
}

// Handler returns the routed handler wrapped in CORS, access logging and
// panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /convert", s.handleConvert)
	mux.HandleFunc("POST /convert", s.handleConvert)
	mux.HandleFunc("GET /view/{id}", s.handleView)
	mux.HandleFunc("GET /views", s.handleViews)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.recoverPanics(s.accessLog(cors(mux)))
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w on %s: %v", ErrListen, addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readTimeout,
		WriteTimeout:      s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server.listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("server.shutdown", "timeout", s.shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
