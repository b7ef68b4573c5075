package router

import (
	"net/http"

	"greencreditapi/internal/api"
	"greencreditapi/internal/api/admin"
	"greencreditapi/internal/api/auth"
	"greencreditapi/internal/api/chat"
	"greencreditapi/internal/api/event"
	"greencreditapi/internal/api/leaderboard"
	"greencreditapi/internal/api/shop"
	"greencreditapi/internal/api/solar"
	"greencreditapi/internal/api/submission"
	"greencreditapi/internal/api/upload"
	"greencreditapi/internal/api/user"
	"greencreditapi/pkg/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func New(h *api.Handler) http.Handler {

	router := chi.NewRouter()

	// Middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{config.ENV.ORIGIN},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Idempotency-Key"},
	}))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	authH := &auth.Handler{Handler: h}
	userH := &user.Handler{Handler: h}
	submissionH := &submission.Handler{Handler: h}
	adminH := &admin.Handler{Handler: h}
	shopH := &shop.Handler{Handler: h}
	leaderboardH := &leaderboard.Handler{Handler: h}
	solarH := &solar.Handler{Handler: h}
	chatH := &chat.Handler{Handler: h}
	uploadH := &upload.Handler{Handler: h}
	eventH := &event.Handler{Handler: h}

	// uploads carry their own size limit
	router.Post("/uploads", h.AuthMiddleware(uploadH.UploadProof))
	router.Get("/chat/stream", h.AuthMiddleware(chatH.Stream))

	router.Group(func(r chi.Router) {

		r.Use(middleware.RequestSize(1 << 20))

		// auth endpoints
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/google-login", authH.GoogleLogin)

		// user endpoints
		r.Get("/user", h.AuthMiddleware(userH.GetUserData))
		r.Patch("/user", h.AuthMiddleware(userH.UpdateProfile))
		r.Get("/rewards", h.AuthMiddleware(userH.GetRewards))

		// submission endpoints
		r.Post("/submissions/tree", h.AuthMiddleware(h.RateLimit(h.SubmitLimiter, submissionH.CreateTree)))
		r.Post("/submissions/cleanup", h.AuthMiddleware(h.RateLimit(h.SubmitLimiter, submissionH.CreateCleanup)))
		r.Get("/submissions", h.AuthMiddleware(submissionH.ListMine))
		r.Delete("/submissions/{kind}/{id}", h.AuthMiddleware(submissionH.Delete))

		// cleanup event endpoints
		r.Get("/cleanup/events", eventH.ListUpcoming)
		r.Post("/cleanup/events/{id}/register", h.AuthMiddleware(eventH.Register))
		r.Get("/cleanup/registrations", h.AuthMiddleware(eventH.ListRegistrations))

		// store endpoints
		r.Get("/products", shopH.ListProducts)
		r.Get("/cart", h.AuthMiddleware(shopH.GetCart))
		r.Post("/cart/items", h.AuthMiddleware(shopH.AddItem))
		r.Patch("/cart/items/{productId}", h.AuthMiddleware(shopH.UpdateItem))
		r.Delete("/cart/items/{productId}", h.AuthMiddleware(shopH.RemoveItem))
		r.Post("/checkout", h.AuthMiddleware(shopH.Checkout))
		r.Get("/orders", h.AuthMiddleware(shopH.ListOrders))

		// leaderboard endpoints
		r.Get("/leaderboard", leaderboardH.GetLeaderboard)
		r.Get("/leaderboard/me", h.AuthMiddleware(leaderboardH.GetMyStanding))

		// solar endpoints
		r.Post("/solar/requests", h.AuthMiddleware(solarH.CreateRequest))
		r.Get("/solar/requests", h.AuthMiddleware(solarH.ListOpen))
		r.Get("/solar/requests/mine", h.AuthMiddleware(solarH.ListMine))
		r.Post("/solar/requests/{id}/apply", h.AuthMiddleware(solarH.Apply))
		r.Get("/solar/requests/{id}/applications", h.AuthMiddleware(solarH.ListApplications))
		r.Post("/solar/requests/{id}/accept", h.AuthMiddleware(solarH.Accept))
		r.Post("/solar/requests/{id}/complete", h.AuthMiddleware(solarH.Complete))
		r.Post("/solar/installations", h.AuthMiddleware(h.RateLimit(h.SubmitLimiter, solarH.SubmitInstallation)))

		// chat endpoints
		r.Get("/chat/messages", h.AuthMiddleware(chatH.GetMyMessages))
		r.Post("/chat/messages", h.AuthMiddleware(h.RateLimit(h.ChatLimiter, chatH.SendMyMessage)))

		// admin endpoints
		r.Get("/admin/submissions/{kind}", h.AdminMiddleware(adminH.ListSubmissions))
		r.Post("/admin/submissions/{kind}/{id}/review", h.AdminMiddleware(adminH.Review))
		r.Get("/admin/users", h.AdminMiddleware(adminH.ListUsers))
		r.Post("/admin/products", h.AdminMiddleware(shopH.CreateProduct))
		r.Post("/admin/cleanup/events", h.AdminMiddleware(eventH.CreateEvent))
		r.Get("/admin/chat/threads", h.AdminMiddleware(chatH.ListThreads))
		r.Get("/admin/chat/{uid}/messages", h.AdminMiddleware(chatH.GetThread))
		r.Post("/admin/chat/{uid}/messages", h.AdminMiddleware(h.RateLimit(h.ChatLimiter, chatH.SendAdminMessage)))

	})

	return router

}
