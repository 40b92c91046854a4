package api

import (
	"code_assessment/internal/api/handler"
	"code_assessment/internal/api/middleware"
	"code_assessment/internal/app/service"
	"code_assessment/internal/common"
	"code_assessment/internal/common/security"
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/jwtauth/v5"
)

// ReadinessCheck reports whether a backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

type RouterDeps struct {
	Tokens        *security.TokenManager
	RequestLogger *httplog.Logger
	CORSOrigins   []string

	AuthService       *service.AuthService
	QuestionService   *service.QuestionService
	GradingService    *service.GradingService
	GradingJobService *service.GradingJobService
	ProgressService   *service.ProgressService

	ReadinessChecks map[string]ReadinessCheck
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if deps.RequestLogger != nil {
		r.Use(httplog.RequestLogger(deps.RequestLogger))
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Searches "Authorization: Bearer T" and stores the verification outcome
	// in the context for middleware.Authenticator.
	r.Use(jwtauth.Verifier(deps.Tokens.JWTAuth()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Get("/ready", readinessHandler(deps.ReadinessChecks))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	questionHandler := handler.NewQuestionHandler(deps.QuestionService)
	codeHandler := handler.NewCodeHandler(deps.GradingService, deps.GradingJobService)
	progressHandler := handler.NewProgressHandler(deps.ProgressService)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", authHandler.RegisterRoutes)
		v1.Get("/languages", questionHandler.ListLanguages)

		v1.Group(func(private chi.Router) {
			private.Use(middleware.Authenticator)
			private.Route("/questions", questionHandler.RegisterRoutes)
			private.Route("/code", codeHandler.RegisterRoutes)
			private.Route("/jobs", codeHandler.RegisterJobRoutes)
			progressHandler.RegisterRoutes(private)
		})
	})

	return r
}

func readinessHandler(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				httplog.LogEntry(r.Context()).Warn("readiness check failed", "check", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "unavailable"
		}
		common.RespondWithJSON(w, status, map[string]any{"status": overall, "checks": results})
	}
}
