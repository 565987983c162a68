// Package server exposes the HTTP API used by the web app and the
// browser extension: document import (PDF upload and article clipping),
// the study library, level adaptation, and vocabulary lists.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/vakya-app/vakya/pkg/adapt"
	"github.com/vakya-app/vakya/pkg/blob"
	"github.com/vakya-app/vakya/pkg/clip"
	"github.com/vakya-app/vakya/pkg/config"
	"github.com/vakya-app/vakya/pkg/fetch"
	"github.com/vakya-app/vakya/pkg/pdfcheck"
	"github.com/vakya-app/vakya/pkg/storage"
)

type Server struct {
	cfg     *config.AppConfig
	store   storage.Store
	blobs   *blob.Store
	fetcher *fetch.Fetcher
	clipper *clip.Clipper
	adapter *adapt.Adapter
	checker *pdfcheck.Checker
	log     *logrus.Entry
}

func New(
	cfg *config.AppConfig,
	store storage.Store,
	blobs *blob.Store,
	fetcher *fetch.Fetcher,
	clipper *clip.Clipper,
	adapter *adapt.Adapter,
	checker *pdfcheck.Checker,
	logger *logrus.Logger,
) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		blobs:   blobs,
		fetcher: fetcher,
		clipper: clipper,
		adapter: adapter,
		checker: checker,
		log:     logger.WithField("component", "server"),
	}
}

// Router builds the chi handler tree. /healthz is open; everything under
// /api requires an allowlisted X-Vakya-User identity.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins(),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Vakya-User"},
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Use(s.requireUser)
		api.Route("/documents", func(docs chi.Router) {
			docs.Post("/pdf", s.handleUploadPDF)
			docs.Post("/clip", s.handleClipArticle)
			docs.Get("/", s.handleListDocuments)
			docs.Route("/{documentID}", func(doc chi.Router) {
				doc.Get("/", s.handleGetDocument)
				doc.Delete("/", s.handleDeleteDocument)
				doc.Get("/file", s.handleDocumentFile)
				doc.Post("/adapt", s.handleAdaptDocument)
				doc.Post("/vocab", s.handleAddVocab)
				doc.Get("/vocab", s.handleListVocab)
				doc.Delete("/vocab/{vocabID}", s.handleDeleteVocab)
				doc.Post("/vocab/{vocabID}/review", s.handleReviewVocab)
			})
		})
	})

	return r
}

// HTTPServer wraps the router in an http.Server bound to the configured
// address, with the same timeout posture for every deployment.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Router(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
}

func (s *Server) corsOrigins() []string {
	if len(s.cfg.AllowedOrigins) > 0 {
		return s.cfg.AllowedOrigins
	}
	return []string{"https://*", "http://*"}
}

// requireUser enforces the identity allowlist. The extension and web app
// send the signed-in user's email in X-Vakya-User.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get("X-Vakya-User")
		if user == "" {
			writeError(w, http.StatusUnauthorized, "missing X-Vakya-User header")
			return
		}
		if !s.cfg.UserAllowed(user) {
			s.log.WithField("user", user).Warn("Rejected request from non-allowlisted user")
			writeError(w, http.StatusForbidden, "user not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("Request handled")
	})
}
