package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/pdv-terminal/api/controllers"
	salescontrollers "github.com/angelmondragon/pdv-terminal/api/controllers/sales"
	terminalcontrollers "github.com/angelmondragon/pdv-terminal/api/controllers/terminal"
	"github.com/angelmondragon/pdv-terminal/api/middleware"
	"github.com/angelmondragon/pdv-terminal/internal/auth"
	"github.com/angelmondragon/pdv-terminal/internal/sales"
	"github.com/angelmondragon/pdv-terminal/internal/terminal"
	"github.com/angelmondragon/pdv-terminal/pkg/config"
	"github.com/angelmondragon/pdv-terminal/pkg/logger"
	"github.com/angelmondragon/pdv-terminal/pkg/redis"
)

// redisStore is what the HTTP layer needs from Redis: health, login counters and idempotency records.
type redisStore interface {
	redis.Pinger
	redis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Auth     auth.Service
	Terminal terminal.Service
	Sales    sales.Service
}

// Options carries optional wiring; zero values fall back to process defaults.
type Options struct {
	Gatherer prometheus.Gatherer
	Now      func() time.Time
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient redisStore,
	svc Services,
	opts Options,
) http.Handler {
	now := opts.Now
	if now == nil {
		loc, err := cfg.App.Location()
		if err != nil {
			loc = time.Local
		}
		now = func() time.Time { return time.Now().In(loc) }
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, redisClient, logg))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.With(middleware.Auth(logg, nil)).Get("/me", controllers.AuthMe(svc.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(logg, nil))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", terminalcontrollers.OpenSession(svc.Terminal, logg))
			r.Get("/", terminalcontrollers.ListSessions(svc.Terminal, logg))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", terminalcontrollers.GetSession(svc.Terminal, logg))
				r.Delete("/", terminalcontrollers.CloseSession(svc.Terminal, logg))
				r.Post("/scan", terminalcontrollers.Scan(svc.Terminal, logg))
				r.Post("/items", terminalcontrollers.AddItem(svc.Terminal, logg))
				r.Delete("/items", terminalcontrollers.ClearItems(svc.Terminal, logg))
				r.Put("/items/{index}", terminalcontrollers.UpdateItem(svc.Terminal, logg))
				r.Delete("/items/{index}", terminalcontrollers.RemoveItem(svc.Terminal, logg))
				r.With(middleware.Idempotency(redisClient, cfg.Terminal.IdempotencyTTL, svc.Auth, logg)).
					Post("/checkout", terminalcontrollers.Checkout(svc.Terminal, logg))
			})
		})

		r.Get("/sales", salescontrollers.History(svc.Sales, now, logg))
		r.Get("/dashboard", salescontrollers.Dashboard(svc.Sales, now, logg))
		r.Get("/dashboard/export.csv", salescontrollers.ExportCSV(svc.Sales, now, logg))
		r.Get("/clients", salescontrollers.Clients(svc.Sales, logg))
	})

	return r
}
