package rest

import (
	"context"
	"net/http"
	"time"

	"hirenest/interfaces/http/rest/handlers"
	"hirenest/interfaces/http/rest/middleware"
	"hirenest/pkg/auth"
	"hirenest/pkg/common"
	pkgerrors "hirenest/pkg/errors"
	"hirenest/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// ReadinessChecks are the named checks run by /ready
type ReadinessChecks map[string]ReadinessCheck

// Options configures the router
type Options struct {
	ClientURL   string
	EnableCORS  bool
	AuthLimiter auth.RateLimiter
	// AuthLimit and AuthWindow describe AuthLimiter in 429 responses
	AuthLimit  int
	AuthWindow time.Duration
	Readiness  ReadinessChecks
}

// Router creates and configures the HTTP router
type Router struct {
	auth          *handlers.AuthHandler
	users         *handlers.UserHandler
	posts         *handlers.PostHandler
	connections   *handlers.ConnectionHandler
	notifications *handlers.NotificationHandler
	resumes       *handlers.ResumeHandler

	authenticator middleware.Authenticator
	errors        *pkgerrors.ErrorHandler
	collector     *observability.Collector
	opts          Options
	logger        *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	postHandler *handlers.PostHandler,
	connectionHandler *handlers.ConnectionHandler,
	notificationHandler *handlers.NotificationHandler,
	resumeHandler *handlers.ResumeHandler,
	authenticator middleware.Authenticator,
	errs *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	opts Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		auth:          authHandler,
		users:         userHandler,
		posts:         postHandler,
		connections:   connectionHandler,
		notifications: notificationHandler,
		resumes:       resumeHandler,
		authenticator: authenticator,
		errors:        errs,
		collector:     collector,
		opts:          opts,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil {
		router.Use(rt.collector.Middleware)
	}

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{rt.opts.ClientURL},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Handle("/metrics", rt.collector.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if rt.opts.AuthLimiter != nil {
					r.Use(middleware.RateLimit(rt.opts.AuthLimiter, rt.errors, rt.logger,
						rt.opts.AuthLimit, rt.opts.AuthWindow.String()))
				}
				r.Post("/signup", rt.auth.Signup)
				r.Post("/login", rt.auth.Login)
			})
			r.Post("/logout", rt.auth.Logout)
			r.With(rt.requireAuth()).Get("/my-profile", rt.auth.MyProfile)
		})

		// Everything below requires a session
		r.Group(func(r chi.Router) {
			r.Use(rt.requireAuth())

			r.Route("/users", func(r chi.Router) {
				r.Get("/suggestions", rt.users.Suggestions)
				r.Put("/profile", rt.users.UpdateProfile)
				r.Get("/{username}", rt.users.GetProfile)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", rt.posts.Feed)
				r.Post("/create", rt.posts.Create)
				r.Delete("/delete/{id}", rt.posts.Delete)
				r.Get("/{id}", rt.posts.Get)
				r.Post("/{id}/comment", rt.posts.Comment)
				r.Post("/{id}/like", rt.posts.Like)
			})

			r.Route("/connections", func(r chi.Router) {
				r.Get("/", rt.connections.List)
				r.Get("/requests", rt.connections.Requests)
				r.Post("/request/{userId}", rt.connections.SendRequest)
				r.Put("/accept/{requestId}", rt.connections.Accept)
				r.Put("/reject/{requestId}", rt.connections.Reject)
				r.Get("/status/{userId}", rt.connections.Status)
				r.Delete("/{userId}", rt.connections.Remove)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.notifications.List)
				r.Put("/{id}/read", rt.notifications.MarkRead)
				r.Delete("/{id}", rt.notifications.Delete)
			})

			r.Post("/restructure", rt.resumes.Restructure)
		})
	})

	return router
}

func (rt *Router) requireAuth() func(http.Handler) http.Handler {
	return middleware.Authenticate(rt.authenticator, rt.errors, rt.logger)
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck runs every registered dependency check
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	failures := make(map[string]string)
	for name, check := range rt.opts.Readiness {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		rt.logger.Warn("Readiness check failed", zap.Any("failures", failures))
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"checks": failures,
		})
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
