package httpapi

import (
	"net/http"
	"time"

	"github.com/DoyleJ11/skill-strike-backend/internal/auth"
	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	"github.com/DoyleJ11/skill-strike-backend/internal/hub"
	"github.com/DoyleJ11/skill-strike-backend/internal/logging"
	"github.com/DoyleJ11/skill-strike-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server carries what the handlers need. Cards is the deck template every
// new game is dealt from.
type Server struct {
	Hub    *hub.Hub
	Auth   *auth.Authority
	Rules  engine.Rules
	Cards  []engine.Card
	Logger *zap.Logger
}

func SetupRoutes(s *Server) http.Handler {
	s.Logger = logging.OrNop(s.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(s.Logger))

	// Public routes
	r.Get("/healthz", Healthz)
	r.Post("/games", s.CreateGame)
	r.Get("/games/{code}", s.GetGame)
	r.Post("/games/{code}/actions", s.PostAction)
	r.Get("/ws", ws.Handler(s.Hub, s.Auth, s.Logger))
	return r
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
