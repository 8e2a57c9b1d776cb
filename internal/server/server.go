package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/psanford/tlsfingerprint/fingerprintlistener"
	"github.com/sirupsen/logrus"

	"github.com/muliwe/aitm-detector/internal/asset"
	"github.com/muliwe/aitm-detector/internal/detector"
	"github.com/muliwe/aitm-detector/internal/logger"
	"github.com/muliwe/aitm-detector/internal/metrics"
)

// DetectPath is the route embedded in sign-in page branding
const DetectPath = "/aitmdetector"

// Config holds server configuration
type Config struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	EnableDebug   bool
	EnableMetrics bool
	AllowList     detector.AllowList
	AssetConfig   asset.Config
	LoggerConfig  logger.Config
	Console       *logrus.Logger // nil uses logrus.StandardLogger()

	// TLS configuration
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		ReadTimeout:   5 * time.Second,
		WriteTimeout:  10 * time.Second,
		IdleTimeout:   120 * time.Second,
		EnableDebug:   false,
		EnableMetrics: true,
		AllowList:     detector.DefaultAllowList(),
		AssetConfig:   asset.DefaultConfig(),
		LoggerConfig:  logger.DefaultConfig(),
		TLSEnabled:    false,
	}
}

// Server represents the HTTP server
type Server struct {
	cfg        Config
	httpServer *http.Server
	handler    *Handler
	logger     *logger.Logger
	console    *logrus.Logger
	listener   net.Listener
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	console := cfg.Console
	if console == nil {
		console = logrus.StandardLogger()
	}

	l, err := logger.New(cfg.LoggerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize detection log: %w", err)
	}

	var m *metrics.Metrics
	if cfg.EnableMetrics {
		m = metrics.New()
	}

	det := detector.New(cfg.AllowList)
	handler := NewHandler(det, asset.New(cfg.AssetConfig), l)
	handler.SetConsole(console)
	handler.SetMetrics(m)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(handler, m, cfg.EnableDebug),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if cfg.TLSEnabled {
		httpServer.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			NextProtos: []string{"h2", "http/1.1"},
		}
		httpServer.ConnContext = connContext
	}

	return &Server{
		cfg:        cfg,
		httpServer: httpServer,
		handler:    handler,
		logger:     l,
		console:    console,
	}, nil
}

// NewRouter binds the detector routes. m may be nil.
func NewRouter(h *Handler, m *metrics.Metrics, enableDebug bool) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(DetectPath, h.HandleDetect).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	if enableDebug {
		r.HandleFunc("/debug", h.HandleDebug).Methods(http.MethodGet)
	}
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	r.Use(MetricsMiddleware(m), RecoverMiddleware(h.console, m))
	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		protocol := "HTTP"
		if s.cfg.TLSEnabled {
			protocol = "HTTPS (TLS fingerprinting enabled)"
		}
		s.console.Infof("AiTM detector starting on %s (%s)", s.cfg.Addr, protocol)
		s.console.Infof("Endpoints: %s (detect), /health (health check)", DetectPath)
		if s.cfg.EnableDebug {
			s.console.Info("Debug endpoint enabled: /debug")
		}
		if s.cfg.EnableMetrics {
			s.console.Info("Metrics endpoint enabled: /metrics")
		}
		s.console.Infof("Warning image: %s", s.cfg.AssetConfig.Path)
		s.console.Infof("Detection log: %s", s.logger.LogPath())

		var err error
		if s.cfg.TLSEnabled {
			s.console.Infof("TLS Certificate: %s", s.cfg.TLSCertFile)
			err = s.startTLS()
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		_ = s.logger.Close()
		return fmt.Errorf("server error: %w", err)
	}
	s.console.Info("Server shutting down...")

	if err := s.Close(); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.console.Info("Server stopped")
	return nil
}

// startTLS starts the server with TLS and fingerprint listener
func (s *Server) startTLS() error {
	cert, err := tls.LoadX509KeyPair(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	tcpListener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to create TCP listener: %w", err)
	}

	// ServeTLS wraps the fingerprint conn, connContext unwraps it again
	fpListener := fingerprintlistener.NewListener(tcpListener)
	s.listener = fpListener

	s.httpServer.TLSConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"h2", "http/1.1"},
	}

	s.console.Info("TLS fingerprinting active (JA3/JA4)")
	return s.httpServer.ServeTLS(fpListener, "", "")
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	if s.listener != nil {
		_ = s.listener.Close()
	}

	return s.logger.Close()
}
