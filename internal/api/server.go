package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dharsanguruparan/RagDrop/internal/ingest"
	"github.com/dharsanguruparan/RagDrop/internal/logger"
	"github.com/dharsanguruparan/RagDrop/internal/model"
)

// Ingester accepts uploads.
type Ingester interface {
	Ingest(ctx context.Context, up ingest.Upload) (*model.Document, error)
}

// Catalog serves listing, lookup, delete and download links.
type Catalog interface {
	List(ctx context.Context, page, pageSize int) (model.Page, error)
	Get(ctx context.Context, id string) (*model.Document, error)
	Delete(ctx context.Context, id string) error
	DownloadURL(ctx context.Context, id string) (string, error)
}

// Chatter answers questions about a document.
type Chatter interface {
	Ask(ctx context.Context, documentID, message string) (string, error)
}

// Options configures the HTTP surface.
type Options struct {
	Address        string
	CORSOrigins    []string
	RequestTimeout time.Duration
	MaxUploadSize  int64
	Version        string
}

// Server exposes HTTP endpoints for uploads, listing and chat.
type Server struct {
	opts    Options
	ingest  Ingester
	catalog Catalog
	chat    Chatter
	log     *logger.Logger
	router  *gin.Engine
}

// New constructs a Server.
func New(opts Options, ingester Ingester, catalog Catalog, chat Chatter, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = model.MaxFileSize
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	s := &Server{
		opts:    opts,
		ingest:  ingester,
		catalog: catalog,
		chat:    chat,
		log:     log.With("component", "api"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.requestLogger(), corsMiddleware(s.opts.CORSOrigins))
	if s.opts.RequestTimeout > 0 {
		r.Use(timeout(s.opts.RequestTimeout))
	}

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)

	v1 := r.Group("/api/v1")
	v1.POST("/files", s.handleUpload)
	v1.GET("/files", s.handleList)
	v1.GET("/files/:id", s.handleGet)
	v1.DELETE("/files/:id", s.handleDelete)
	v1.GET("/files/:id/download", s.handleDownload)
	v1.POST("/chat/:id", s.handleChat)
	return r
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("API listening", "address", s.opts.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length", "Location"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= 500:
			s.log.Error("HTTP request", fields...)
		case status >= 400:
			s.log.Warn("HTTP request", fields...)
		default:
			s.log.Info("HTTP request", fields...)
		}
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.log.Error("Panic serving request", "path", c.Request.URL.Path, "panic", recovered)
		respondError(c, http.StatusInternalServerError, "unknown", "internal error")
	})
}

func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
