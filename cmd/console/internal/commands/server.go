package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"filippo.io/csrf"
	"github.com/rs/cors"

	"github.com/coursedesk/console/internal/api"
	"github.com/coursedesk/console/internal/authz"
	"github.com/coursedesk/console/internal/logger"
	"github.com/coursedesk/console/internal/login"
	"github.com/coursedesk/console/internal/session"
	"github.com/coursedesk/console/internal/telemetry"
	"github.com/coursedesk/console/internal/web"
)

type ServerCmd struct {
	Listen  string `help:"HTTP server listen address" default:"localhost:3000" env:"CONSOLE_LISTEN"`
	APIBase string `help:"base URL of the backend API" default:"http://localhost:8000" env:"PUBLIC_API_BASE"`

	// Development and operational modes
	Dev      bool          `help:"development mode - cookies without Secure, CORS for the front-end dev server" default:"false" env:"CONSOLE_DEV"`
	WaitAPI  time.Duration `help:"how long to wait for the backend to come up in dev mode" default:"30s" env:"CONSOLE_WAIT_API"`
	Tracing  bool          `help:"enable tracing" default:"false" env:"CONSOLE_TRACING"`
	CacheAPI bool          `help:"cache backend GET responses in memory" default:"true" env:"CONSOLE_CACHE_API"`

	// CORS configuration (dev mode only)
	CORSOrigins []string `help:"allowed CORS origins in dev mode" default:"http://localhost:5173" env:"CONSOLE_CORS_ORIGINS"`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug || c.Dev)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting console")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.Init(ctx, "coursedesk-console", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	apiOpts := []api.Option{}
	if c.CacheAPI {
		apiOpts = append(apiOpts, api.WithCaching())
	}
	client := api.New(c.APIBase, apiOpts...)

	if c.Dev {
		log.Info().Str("api", c.APIBase).Msg("Waiting for backend API")
		if err := client.WaitReady(ctx, c.WaitAPI); err != nil {
			return fmt.Errorf("backend API not reachable at %s: %w", c.APIBase, err)
		}
	}

	loginHandler := login.NewHandler(client, c.Dev)
	pages := web.New(client)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", pages.Home)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /login", loginHandler.Page)
	mux.HandleFunc("POST /login", loginHandler.Action)
	mux.HandleFunc("POST /logout", login.Logout)
	mux.HandleFunc("GET /logout", login.LogoutRedirect)

	// Administrative subtree; every entry point re-validates through the guard
	guard := authz.RequireRole(authz.RoleAdmin)
	mux.Handle("GET /admin", guard(http.HandlerFunc(pages.Dashboard)))
	mux.Handle("GET /admin/courses", guard(http.HandlerFunc(pages.Courses)))

	// CSRF protection for the form routes
	protection := csrf.New()
	if c.Dev {
		for _, origin := range c.CORSOrigins {
			if err := protection.AddTrustedOrigin(origin); err != nil {
				return fmt.Errorf("invalid CORS origin %q: %w", origin, err)
			}
		}
	}

	var handler http.Handler = protection.Handler(mux)
	handler = session.Middleware()(handler)
	if c.Dev {
		handler = withCORS(c.CORSOrigins, handler)
	}
	handler = logger.HTTPRequests(log)(handler)

	log.Info().Str("addr", c.Listen).Bool("dev", c.Dev).Str("api", c.APIBase).Msg("Starting HTTP server")
	return configureHTTPServer(c.Listen, handler).ListenAndServe()
}

// withCORS lets the front-end dev server call the console with credentials.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true, // required for cookie-based authentication
	})
	return middleware.Handler(h)
}
