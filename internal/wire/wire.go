// internal/wire/wire.go
package wire

import (
	"net/http"

	"apartment-booking/internal/adaptor"
	"apartment-booking/internal/data/repository"
	"apartment-booking/internal/usecase"
	"apartment-booking/pkg/metrics"
	"apartment-booking/pkg/middleware"
	"apartment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the assembled HTTP application.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes. Collectors are registered on
// registry, which is also what /metrics exposes.
func Wiring(
	repo *repository.Repository,
	integrations usecase.Integrations,
	config *utils.Config,
	registry *prometheus.Registry,
	logger *zap.Logger,
) (*App, error) {
	if integrations.Metrics == nil {
		integrations.Metrics = metrics.New(registry)
	}

	service, err := usecase.NewService(repo, integrations, config, logger)
	if err != nil {
		return nil, err
	}
	handler := adaptor.NewHandler(service, config, logger)

	router := setupRouter(handler, repo, integrations.Metrics, registry, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}, nil
}

// NewRegistry returns a registry carrying the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))
	if config.Metrics.Enabled {
		r.Use(middleware.Metrics(m))
	}

	wireCatalog(r, handler.Catalog)
	wireBooking(r, handler.Booking, repo, logger)
	wireAdmin(r, handler.Reservation, repo, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if config.Metrics.Enabled {
		r.Method(http.MethodGet, config.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return r
}
