package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/neointegra/neointegra-backend/api/controllers"
	"github.com/neointegra/neointegra-backend/api/middleware"
	"github.com/neointegra/neointegra-backend/internal/auth"
	"github.com/neointegra/neointegra-backend/internal/catalog"
	"github.com/neointegra/neointegra-backend/internal/notifications"
	"github.com/neointegra/neointegra-backend/internal/orders"
	"github.com/neointegra/neointegra-backend/internal/payments"
	"github.com/neointegra/neointegra-backend/internal/subscriptions"
	"github.com/neointegra/neointegra-backend/pkg/config"
	"github.com/neointegra/neointegra-backend/pkg/db"
	"github.com/neointegra/neointegra-backend/pkg/logger"
	"github.com/neointegra/neointegra-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	authService auth.Service,
	catalogService catalog.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
	subscriptionsService subscriptions.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Get("/healthz", controllers.HealthReady(cfg, logg, dbP, redisClient))

	// Registered with full paths so GET /api/v1/auth/me can live in the
	// authenticated group below without a mount shadowing it.
	r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
		Post("/api/v1/auth/login", controllers.Login(authService, logg))
	r.With(
		middleware.AuthRateLimit(registerPolicy, redisClient, logg),
		middleware.Idempotency(redisClient, logg),
	).Post("/api/v1/auth/register", controllers.Register(authService, logg))

	r.Route("/api/v1/services", func(r chi.Router) {
		r.Get("/", controllers.ListServices(catalogService, logg))
		r.Get("/{slug}", controllers.GetService(catalogService, logg))
	})

	// Gateway callback carries its own HMAC signature instead of a JWT.
	r.Post("/api/v1/payments/callback", controllers.PaymentCallback(paymentsService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, logg))

		r.Get("/auth/me", controllers.Me(authService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(ordersService, logg))
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderRef}", controllers.GetOrder(ordersService, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(ordersService, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.CreatePayment(paymentsService, logg))
			r.Get("/order/{orderID}", controllers.ListOrderPayments(paymentsService, logg))
			r.Get("/{paymentID}", controllers.GetPayment(paymentsService, logg))
			r.Post("/{paymentID}/check", controllers.CheckPaymentStatus(paymentsService, logg))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", controllers.ListSubscriptions(subscriptionsService, logg))
			r.Get("/expiring", controllers.ListExpiringSubscriptions(subscriptionsService, logg))
			r.Get("/{subscriptionID}", controllers.GetSubscription(subscriptionsService, logg))
			r.Post("/{subscriptionID}/renew", controllers.RenewSubscription(subscriptionsService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
