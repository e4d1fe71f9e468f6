package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopvista/storefront/api/controllers"
	"github.com/shopvista/storefront/api/middleware"
	"github.com/shopvista/storefront/internal/cart"
	"github.com/shopvista/storefront/internal/catalog"
	"github.com/shopvista/storefront/internal/identity"
	"github.com/shopvista/storefront/internal/notifications"
	"github.com/shopvista/storefront/internal/orders"
	"github.com/shopvista/storefront/pkg/config"
	"github.com/shopvista/storefront/pkg/localstore"
	"github.com/shopvista/storefront/pkg/logger"
	"github.com/shopvista/storefront/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store localstore.Pinger,
	catalogClient *catalog.Client,
	registry *prometheus.Registry,
	session *identity.Session,
	catalogService catalog.Service,
	cartService cart.Service,
	ordersService orders.Service,
	notificationsService notifications.Service,
	identityService identity.Service,
) http.Handler {
	r := chi.NewRouter()

	httpMetrics := metrics.NewHTTPMetrics(registry)

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.Identity(session, logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, store, catalogClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Get("/{productId}", controllers.GetProduct(catalogService, logg))
			r.Post("/{productId}/reviews", controllers.SubmitReview(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/items", controllers.CartAdd(cartService, logg))
			r.Put("/items/{productId}", controllers.CartUpdate(cartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemove(cartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(ordersService, logg))
		r.Get("/orders", controllers.OrderHistory(ordersService, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/clear", controllers.ClearNotifications(notificationsService, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(identityService, logg))
			r.Post("/login", controllers.AuthLogin(identityService, logg))
			r.Post("/logout", controllers.AuthLogout(identityService, logg))
		})
		r.Get("/session", controllers.Session(logg))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileFetch(identityService, logg))
			r.Put("/", controllers.ProfileUpdate(identityService, logg))
			r.Put("/password", controllers.ChangePassword(identityService, logg))
		})

		r.Post("/signup", controllers.Signup(identityService, logg))
	})

	return r
}
