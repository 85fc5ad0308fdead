package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/syncdeck/syncdeck-backend/api/controllers"
	"github.com/syncdeck/syncdeck-backend/api/middleware"
	"github.com/syncdeck/syncdeck-backend/internal/admin"
	"github.com/syncdeck/syncdeck-backend/internal/auth"
	"github.com/syncdeck/syncdeck-backend/internal/chat"
	"github.com/syncdeck/syncdeck-backend/internal/deals"
	"github.com/syncdeck/syncdeck-backend/internal/notifications"
	"github.com/syncdeck/syncdeck-backend/internal/tracks"
	"github.com/syncdeck/syncdeck-backend/pkg/auth/session"
	"github.com/syncdeck/syncdeck-backend/pkg/config"
	"github.com/syncdeck/syncdeck-backend/pkg/db"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
	"github.com/syncdeck/syncdeck-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Sessions      session.AccessSessionChecker
	Auth          auth.Service
	Register      auth.RegisterService
	Deals         deals.Service
	Tracks        tracks.Service
	Chat          chat.Service
	Notifications notifications.Service
	Admin         admin.Service
}

// NewRouter assembles the full route tree with middleware applied per group.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.Post("/register", controllers.AuthRegister(p.Register, p.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(p.Auth, cfg.JWT, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/deals", func(r chi.Router) {
			r.Get("/", controllers.ListDeals(p.Deals, logg))
			r.Post("/", controllers.CreateDeal(p.Deals, logg))
			r.Route("/{dealId}", func(r chi.Router) {
				r.Get("/", controllers.GetDeal(p.Deals, logg))
				r.Post("/state", controllers.UpdateDealState(p.Deals, logg))
				r.Get("/history", controllers.DealHistory(p.Deals, logg))
				r.Get("/messages", controllers.ListDealMessages(p.Chat, logg))
				r.Post("/messages", controllers.SendDealMessage(p.Chat, logg))
			})
		})

		r.Route("/v1/tracks", func(r chi.Router) {
			r.Get("/", controllers.ListCatalog(p.Tracks, logg))
			r.Get("/mine", controllers.ListMyTracks(p.Tracks, logg))
			r.Post("/", controllers.CreateTrack(p.Tracks, logg))
			r.Route("/{trackId}", func(r chi.Router) {
				r.Get("/", controllers.GetTrack(p.Tracks, logg))
				r.Patch("/", controllers.UpdateTrack(p.Tracks, logg))
				r.Post("/publish", controllers.PublishTrack(p.Tracks, logg))
				r.Post("/remove", controllers.RemoveTrack(p.Tracks, logg))
			})
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(p.Admin, logg))
			r.Post("/{userId}/deactivate", controllers.AdminDeactivateUser(p.Admin, logg))
			r.Post("/{userId}/reactivate", controllers.AdminReactivateUser(p.Admin, logg))
			r.Post("/{userId}/reset-password", controllers.AdminResetPassword(p.Admin, logg))
		})
		r.Route("/v1/tracks", func(r chi.Router) {
			r.Post("/{trackId}/remove", controllers.AdminRemoveTrack(p.Tracks, logg))
		})
	})

	return r
}
