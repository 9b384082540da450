package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/a-h/templ"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/config"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/logger"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/middleware"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/page"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

// ImagesPath is the JSON endpoint polled by the display.
const ImagesPath = "/api/images"

// Gallery produces the current carousel. It degrades instead of failing.
type Gallery interface {
	Images(ctx context.Context) []types.DisplayImage
}

// Server holds dependencies for handling HTTP requests.
type Server struct {
	cfg     config.Config
	gallery Gallery
}

// NewServer constructs a new HTTP server instance.
func NewServer(cfg config.Config, gallery Gallery) *Server {
	return &Server{
		cfg:     cfg,
		gallery: gallery,
	}
}

// Handler wires every endpoint behind the request logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ImagesPath, s.ImagesHandler)
	mux.HandleFunc("/healthz", s.HealthzHandler)
	mux.HandleFunc("/{$}", s.PageHandler)
	return middleware.RequestIDMiddleware(mux)
}

// HealthzHandler responds to health checks.
func (s *Server) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debug(r.Context(), "health check requested")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ImagesHandler returns the carousel as JSON. Responses are never cached so
// every poll sees the current bucket.
func (s *Server) ImagesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		logger.Warn(ctx, "invalid method for images endpoint", logger.Fields{
			"method": r.Method,
		})
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Cache-Control", "no-store, max-age=0")

	body, err := s.encodeImages(ctx)
	if err != nil {
		logger.Error(ctx, "failed to build images response", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch images")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) encodeImages(ctx context.Context) (body []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while fetching images: %v", rec)
		}
	}()

	images := s.gallery.Images(ctx)
	if images == nil {
		images = []types.DisplayImage{}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(images); err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}
	return buf.Bytes(), nil
}

// PageHandler renders the carousel with the current gallery embedded so the
// first paint needs no extra round trip.
func (s *Server) PageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Cache-Control", "no-store, max-age=0")

	view := page.View{
		Title:    s.cfg.PageTitle,
		Term:     s.cfg.PageTerm,
		Images:   s.gallery.Images(r.Context()),
		Endpoint: ImagesPath,
		Refresh:  s.cfg.RefreshInterval,
		Advance:  s.cfg.AdvanceInterval,
	}
	templ.Handler(page.Carousel(view), templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
		logger.Error(r.Context(), "failed to render page", err)
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		})
	})).ServeHTTP(w, r)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
