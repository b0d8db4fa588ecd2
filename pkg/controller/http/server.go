package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/casedesk/pkg/usecase"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

// DefaultMaxBodyBytes bounds request bodies. Attachments travel inline as
// data URLs, so the limit is generous.
const DefaultMaxBodyBytes = 32 << 20

type Server struct {
	router       *chi.Mux
	uc           *usecase.UseCases
	maxBodyBytes int64
}

type Options func(*Server)

// WithMaxBodyBytes limits the size of request bodies
func WithMaxBodyBytes(n int64) Options {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:       r,
		uc:           uc,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(s.maxBodyBytes))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authLoginHandler(uc.Auth))
		r.Post("/auth/logout", authLogoutHandler(uc.Auth))

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(uc.Auth))

			r.Get("/auth/me", authMeHandler())

			r.Route("/cases", func(r chi.Router) {
				r.Get("/", listCasesHandler(uc.Case))
				r.Post("/", createCaseHandler(uc.Case))

				r.Route("/{caseID}", func(r chi.Router) {
					r.Get("/", getCaseHandler(uc.Case))
					r.Put("/", updateCaseHandler(uc.Case))
					r.Delete("/", deleteCaseHandler(uc.Case))

					r.Post("/close", closeCaseHandler(uc.Case))
					r.Post("/share", shareCaseHandler(uc.Case))

					r.Post("/steps", addStepHandler(uc.Case))
					r.Put("/steps/{stepID}", editStepHandler(uc.Case))
					r.Delete("/steps/{stepID}", deleteStepHandler(uc.Case))
					r.Get("/steps/{stepID}/attachments/{attachmentID}", attachmentHandler(uc.Case))
				})
			})

			r.Get("/dashboard", dashboardHandler(uc.Case))
			r.Get("/notification", getNotificationHandler(uc.Notifications()))
			r.Delete("/notification", dismissNotificationHandler(uc.Notifications()))
			r.Post("/reset", resetHandler(uc.Case))
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger logs HTTP requests and embeds a request scoped logger into
// the request context
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}
