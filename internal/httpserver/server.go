// internal/httpserver/server.go
//
// HTTP server wiring for the word scramble backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Game API under /api/game: start, user-stats, submit-score, leaderboard, health.
//   - Play sessions over WebSocket at /ws/play (see routes_play.go).
//
// Notes:
//   - Identity comes from a play token, signed Telegram init data, or the
//     X-User-Id header, in that order (see middleware.go).
//   - The WebSocket route sits outside the handler timeout; sessions are
//     tracked separately so Shutdown can drain them.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/wordscramble/internal/auth"
	"github.com/robalobadob/wordscramble/internal/game"
	"github.com/robalobadob/wordscramble/internal/store"
	"github.com/robalobadob/wordscramble/internal/words"
)

// Deps are the collaborators a Server needs. Backend may be nil, in which
// case play sessions submit to and read from Store directly.
type Deps struct {
	Store         store.Store
	Bank          *words.Bank
	Resolver      *auth.Resolver
	Backend       Backend
	TokenTTL      time.Duration
	ClientOrigin  string
	Game          game.Config
	SubmitTimeout time.Duration
	Now           func() time.Time
}

// Server bundles the router and its dependencies.
type Server struct {
	r    *chi.Mux
	deps Deps

	ctx      context.Context // cancelled by Shutdown; closes play sessions
	cancel   context.CancelFunc
	sessions sync.WaitGroup
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.TokenTTL <= 0 {
		d.TokenTTL = 24 * time.Hour
	}
	if d.ClientOrigin == "" {
		d.ClientOrigin = "http://localhost:5173"
	}
	if d.Backend == nil {
		d.Backend = LocalBackend{Store: d.Store}
	}
	s := &Server{r: chi.NewRouter(), deps: d}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	// --- middleware ---
	s.r.Use(chimw.RequestID)      // add X-Request-ID
	s.r.Use(chimw.RealIP)         // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)      // recover from panics
	s.r.Use(cors(d.ClientOrigin)) // credentials-friendly CORS

	// --- play sessions (long-lived, no handler timeout) ---
	s.r.Get("/ws/play", s.handlePlay)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"wordscramble","endpoints":["/health","POST /api/game/start","GET /api/game/user-stats","POST /api/game/submit-score","GET /api/game/leaderboard","/ws/play"]}`))
		})
		r.Get("/health", s.handleHealth)

		// Debug: word list counts per tier
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			if d.Bank == nil {
				http.Error(w, `{"error":"words_not_loaded"}`, http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(d.Bank.Stats())
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/health", s.handleHealth)
			r.Route("/game", s.mountGame)
		})

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
		})
	})

	return s
}

// Handler exposes the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.r }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Shutdown closes open play sessions and waits for them to report, or for
// ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true,"status":"healthy"}`))
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	headers := strings.Join([]string{"Content-Type", "Authorization", auth.HeaderInitData, auth.HeaderUserID, auth.HeaderUserName}, ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", headers)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v with status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
