// Package relay serves the recognition endpoint that keeps the model API key
// on the server. It stores nothing and can be shared by any number of callers.
package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/recognizer"
	"github.com/m-mizutani/digitnote/pkg/utils/logging"
)

const (
	DefaultMaxBodyBytes = 10 << 20

	// RecognizePath is the canonical route; NetlifyPath keeps the original
	// frontend working without changes.
	RecognizePath = "/api/recognize"
	NetlifyPath   = "/.netlify/functions/gemini"
)

type Server struct {
	upstream     recognizer.Recognizer
	logger       *slog.Logger
	maxBodyBytes int64
	allowOrigins []string
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

func WithAllowOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowOrigins = origins
		}
	}
}

// New creates a relay server. A nil upstream is accepted; every request then
// fails with a misconfiguration error, like a deployment without an API key.
func New(upstream recognizer.Recognizer, opts ...Option) *Server {
	s := &Server{
		upstream:     upstream,
		logger:       logging.Default(),
		maxBodyBytes: DefaultMaxBodyBytes,
		allowOrigins: []string{"https://*", "http://*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes of the relay
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed", "")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Not found", "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})
	r.Post(RecognizePath, s.handleRecognize)
	r.Post(NetlifyPath, s.handleRecognize)

	return r
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	ctx := logging.With(r.Context(), s.logger.With("request_id", middleware.GetReqID(r.Context())))
	logger := logging.From(ctx)

	if s.upstream == nil {
		writeError(w, r, http.StatusInternalServerError, "Server misconfigured: API key not set", "")
		return
	}

	var req recognizer.RelayRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "Image is too large", "")
			return
		}
		writeError(w, r, http.StatusBadRequest, "No image data provided", "")
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, r, http.StatusBadRequest, "No image data provided", "")
		return
	}

	result, err := s.upstream.Recognize(ctx, req.ImageBase64)
	if err != nil {
		status, msg, code := failureResponse(err)
		if status >= http.StatusInternalServerError {
			logger.Error("recognition failed", "error", err, "status", status)
		} else {
			logger.Info("recognition rejected", "error", err, "status", status)
		}
		writeError(w, r, status, msg, code)
		return
	}

	render.JSON(w, r, recognizer.RelayResponse{Result: result})
}

// failureResponse maps an upstream error to the relay status, message and code
func failureResponse(err error) (int, string, model.FailureKind) {
	var f *model.Failure
	if !errors.As(err, &f) {
		return http.StatusInternalServerError, "Internal server error", ""
	}

	switch f.Kind {
	case model.FailureEmptyResponse, model.FailureNoDigitsFound, model.FailureInvalidRequest, model.FailureImageDecode:
		return http.StatusBadRequest, f.Message, f.Kind
	case model.FailureRecognitionFailed:
		if f.Status >= 400 && f.Status < 600 {
			return f.Status, f.Message, ""
		}
		return http.StatusBadGateway, f.Message, ""
	}
	return http.StatusInternalServerError, "Internal server error", ""
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, code model.FailureKind) {
	render.Status(r, status)
	render.JSON(w, r, recognizer.RelayResponse{Error: msg, Code: code})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
