package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Options configures Server. Zero timeouts fall back to defaults sized for
// small JSON requests.
type Options struct {
	Addr         string
	Handler      http.Handler
	Logger       *zap.Logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type Server struct {
	http *http.Server
	log  *zap.Logger
}

func New(opts Options) *Server {
	if opts.Handler == nil {
		opts.Handler = http.NotFoundHandler()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           opts.Handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       orDefault(opts.ReadTimeout, 15*time.Second),
			WriteTimeout:      orDefault(opts.WriteTimeout, 15*time.Second),
			IdleTimeout:       orDefault(opts.IdleTimeout, 60*time.Second),
		},
		log: opts.Logger,
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Start listens on the configured address. It returns nil after Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l. It returns nil after Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.log.Info("http server starting", zap.String("addr", l.Addr().String()))
	if err := s.http.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server stopping")
	return s.http.Shutdown(ctx)
}
