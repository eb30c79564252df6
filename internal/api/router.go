package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/api/middleware"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/handlers"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

const (
	// maxJSONBody bounds ordinary API request bodies.
	maxJSONBody = 1 << 20
	// maxUploadBody leaves room for multipart framing around the largest file.
	maxUploadBody = handlers.MaxResumeSize + 1<<20
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	RateLimit      middleware.RateLimiterConfig
	// Realtime serves GET /ws; it is mounted behind RequireAuth.
	Realtime http.Handler
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, deps handlers.Deps, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing("nexthire"))

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	limiter := middleware.NewRateLimiter(deps.Redis.Client(), deps.Tokens, logger, opts.RateLimit)
	r.Use(limiter.Middleware)

	// The frontend sends the token cookie, so origins must be explicit.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(deps)
	auth := middleware.NewAuthMiddleware(deps.Tokens)

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir))))
	if opts.Realtime != nil {
		r.With(auth.RequireAuth).Get("/ws", opts.Realtime.ServeHTTP)
	}

	// Uploads
	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(maxUploadBody))
		r.Use(auth.RequireAuth)

		r.Post("/users/{id}/resume", h.UploadResume)
		r.Post("/users/{id}/picture", h.UploadPicture)
		r.Post("/resume/parse", h.ParseResume)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(maxJSONBody))

		// Public routes (no auth required)
		r.Get("/health", h.Health)
		r.Get("/api", h.Root)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/verify-email", h.VerifyEmail)
		r.Post("/resend-verification", h.ResendVerification)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password/{token}", h.ResetPassword)
		r.Post("/auth/google", h.GoogleLogin)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Get("/me", h.Me)
			r.Put("/change-password", h.ChangePassword)

			r.With(middleware.RequireRole(models.RoleAdmin)).Get("/users", h.ListUsers)
			r.With(middleware.RequireRole(models.RoleAdmin)).Post("/users", h.CreateUser)
			r.Get("/users/{id}", h.GetUser)
			r.Put("/users/{id}", h.UpdateUser)
			r.Delete("/users/{id}", h.DeleteUser)
			r.With(middleware.RequireRole(models.RoleEnterprise, models.RoleAdmin)).Get("/candidates", h.ListCandidates)

			r.Get("/applications", h.ListApplications)
			r.Get("/quiz/{jobId}", h.GetQuiz)

			r.Get("/interviews", h.ListInterviews)
			r.Get("/upcoming-interviews", h.UpcomingInterviews)
			r.Get("/interviews/{id}", h.GetInterview)
			r.Put("/interviews/{id}/status", h.UpdateInterviewStatus)
			r.Post("/interviews/{id}/start-call", h.StartCall)
			r.Post("/interviews/{id}/end-call", h.EndCall)

			r.Post("/api/messages/send", h.SendMessage)
			r.Get("/api/messages/history/{user1}/{user2}", h.History)
			r.Get("/api/messages/user/{userId}", h.UserMessages)
			r.Put("/api/messages/read/{partnerId}", h.MarkRead)

			r.Get("/notifications", h.ListNotifications)
			r.Put("/notifications/{id}/seen", h.MarkNotificationSeen)
			r.Get("/presence/{userId}", h.Presence)

			// Enterprises
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleEnterprise, models.RoleAdmin))

				r.Post("/add-job", h.CreateJob)
				r.Put("/jobs/{id}", h.UpdateJob)
				r.Delete("/delete-job/{id}", h.DeleteJob)
				r.Get("/jobs/{id}/applications", h.ListJobApplications)
				r.Put("/applications/{id}/status", h.UpdateApplicationStatus)
				r.Post("/quiz", h.UpsertQuiz)
				r.Put("/update-quiz-score", h.UpdateQuizScore)
				r.Get("/quiz-results/{jobId}", h.ListQuizResults)
				r.Get("/quiz/all-quizzes", h.ListQuizzes)
				r.Get("/approved-candidates", h.ApprovedCandidates)
				r.Post("/interviews", h.ScheduleInterview)
			})

			// Candidates
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleCandidate))

				r.Post("/apply-job", h.ApplyJob)
				r.Post("/submit-quiz", h.SubmitQuiz)
				r.Get("/recommendations", h.Recommendations)
				r.Post("/generate-application", h.GenerateApplication)
			})

			r.With(middleware.RequireRole(models.RoleAdmin)).Get("/stats", h.Stats)
		})
	})

	return r
}
