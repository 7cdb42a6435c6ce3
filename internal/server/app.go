package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stockdash/internal/auth"
	"stockdash/internal/config"
	"stockdash/internal/models"
	"stockdash/internal/quote"
	"stockdash/internal/store"
)

const sessionName = "auth-session"

// App holds the router and every service the handlers need.
type App struct {
	router    *mux.Router
	cfg       *config.Config
	db        store.Store
	auth      *auth.Service
	quotes    *quote.Aggregator
	history   *quote.HistoryFetcher
	sessions  *sessions.CookieStore
	accessLog zerolog.Logger
}

// NewApp wires the services into a router.
func NewApp(
	cfg *config.Config,
	db store.Store,
	authSvc *auth.Service,
	quotes *quote.Aggregator,
	history *quote.HistoryFetcher,
	sessionStore *sessions.CookieStore,
) *App {
	app := &App{
		router:    mux.NewRouter(),
		cfg:       cfg,
		db:        db,
		auth:      authSvc,
		quotes:    quotes,
		history:   history,
		sessions:  sessionStore,
		accessLog: log.Logger,
	}

	app.Routes()

	return app
}

// SetAccessLogger sends access lines somewhere other than the global logger.
func (app *App) SetAccessLogger(l zerolog.Logger) {
	app.accessLog = l
}

// Routes keeps all routes in one place.
func (app *App) Routes() {
	app.router.HandleFunc("/health", app.healthHandler).Methods("GET")

	api := app.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/signup", app.signupHandler).Methods("POST")
	api.HandleFunc("/signin", app.signinHandler).Methods("POST")
	api.HandleFunc("/signout", app.signoutHandler).Methods("POST")
	api.HandleFunc("/me", app.authMiddleware(app.meHandler)).Methods("GET")

	api.HandleFunc("/stocks", app.stocksHandler).Methods("GET")
	api.HandleFunc("/historical/{symbol}", app.historicalHandler).Methods("GET")
}

// Handler returns the router wrapped in CORS, request ids, access logging
// and panic recovery.
func (app *App) Handler() http.Handler {
	var h http.Handler = app.router
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, app.logAccess)
	h = requestID(h)

	origins := app.cfg.Server.AllowedOrigins
	corsOpts := []handlers.CORSOption{
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Accept", "Authorization", "Content-Type", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	}
	if !(len(origins) == 1 && origins[0] == "*") {
		corsOpts = append(corsOpts, handlers.AllowCredentials())
	}
	return handlers.CORS(corsOpts...)(h)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + app.cfg.Server.Port,
		Handler:      app.Handler(),
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
		IdleTimeout:  app.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutdown signal received, stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// authMiddleware accepts a bearer token or an authenticated session and
// puts the caller's claims on the request context.
func (app *App) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, r, http.StatusUnauthorized, kindUnauthorized, "Unauthorized", nil)
				return
			}
			claims, err := app.auth.Issuer().Verify(strings.TrimSpace(token))
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, kindUnauthorized, "Unauthorized", err)
				return
			}
			next(w, r.WithContext(withClaims(r.Context(), claims)))
			return
		}

		// A cookie that fails to decode is treated like a missing one.
		session, _ := app.sessions.Get(r, sessionName)
		if ok, _ := session.Values["authenticated"].(bool); !ok {
			writeError(w, r, http.StatusUnauthorized, kindUnauthorized, "Unauthorized", nil)
			return
		}
		// Sessions expire with the token TTL even if the cookie codec would
		// still accept them.
		issuedAt, ok := session.Values["issued_at"].(int64)
		if !ok || app.auth.Issuer().Expired(issuedAt) {
			writeError(w, r, http.StatusUnauthorized, kindUnauthorized, "Unauthorized", auth.ErrTokenExpired)
			return
		}
		claims := &auth.Claims{}
		claims.Subject, _ = session.Values["user_id"].(string)
		role, _ := session.Values["role"].(string)
		claims.Role = models.Role(role)
		next(w, r.WithContext(withClaims(r.Context(), claims)))
	}
}
