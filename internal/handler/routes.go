package handler

import (
	"time"

	"uti-assess/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Assessments *AssessmentHandler
	History     *HistoryHandler
}

// RegisterRoutes mounts the API under /api. Scoring and history work anonymously;
// a valid bearer token attaches them to the account instead of the session.
func RegisterRoutes(app fiber.Router, h Handlers, tokens middleware.TokenValidator, sessionTTL time.Duration) {
	api := app.Group("/api", middleware.Session(sessionTTL))
	optional := middleware.OptionalAuth(tokens)
	protected := middleware.Protected(tokens)

	api.Get("/health", h.Assessments.Health)
	api.Post("/predict", optional, h.Assessments.Predict)
	api.Post("/batch-predict", optional, h.Assessments.BatchPredict)

	auth := api.Group("/auth")
	auth.Post("/signup", h.Auth.SignUp)
	auth.Post("/signin", h.Auth.SignIn)
	auth.Post("/refresh", h.Auth.RefreshToken)
	auth.Post("/signout", protected, h.Auth.SignOut)
	auth.Get("/google/login", h.Auth.GoogleLogin)
	auth.Get("/google/callback", h.Auth.GoogleCallback)

	users := api.Group("/users", protected)
	users.Get("/me", h.Users.GetMyProfile)
	users.Patch("/me", h.Users.UpdateMyProfile)

	history := api.Group("/history")
	history.Get("/", optional, h.History.List)
	history.Get("/all", protected, h.History.ListAll)
	history.Get("/stats", optional, h.History.Stats)
	history.Get("/export", optional, h.History.Export)
	history.Delete("/", optional, h.History.Clear)
	history.Delete("/:id", optional, h.History.Delete)
}
