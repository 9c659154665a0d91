package api

import (
	"net/http"
	"time"

	"github.com/Adeyod/degenuisFx-backend/internal/api/handler"
	"github.com/Adeyod/degenuisFx-backend/internal/api/middleware"
	"github.com/Adeyod/degenuisFx-backend/internal/app/service"
	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/common/security"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
)

type RouterDeps struct {
	Students  *service.AccountService
	Investors *service.AccountService
	Contacts  *service.ContactService
	Sessions  *security.SessionManager
	Gate      middleware.Authorizer
	Logger    logging.Logger

	// AccessLog is optional; tests leave it nil.
	AccessLog *httplog.Logger

	CORSOrigins     []string
	RateLimit       int
	RateLimitWindow time.Duration
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if deps.AccessLog != nil {
		r.Use(httplog.RequestLogger(deps.AccessLog))
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to Degenius FX website"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	mw := handler.Middlewares{
		Authenticate: middleware.Authenticator(deps.Sessions),
		AdminOnly:    middleware.AdminOnly(deps.Gate, deps.Logger),
		RateLimit:    rateLimiter(deps.RateLimit, deps.RateLimitWindow),
	}

	r.Route("/api/student", handler.NewAccountHandler(deps.Students, deps.Sessions, mw, deps.Logger).RegisterRoutes)
	r.Route("/api/investors", handler.NewAccountHandler(deps.Investors, deps.Sessions, mw, deps.Logger).RegisterRoutes)
	r.Route("/api/v2", handler.NewContactHandler(deps.Contacts, deps.Logger).RegisterRoutes)

	return r
}

// rateLimiter returns nil when limiting is disabled.
func rateLimiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	// Each route gets its own counter.
	return func(next http.Handler) http.Handler {
		return httprate.Limit(limit, window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				common.RespondWithFault(w, common.ErrTooManyRequests)
			}),
		)(next)
	}
}
