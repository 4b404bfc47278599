package server

import (
	"net/http"

	"github.com/Temutjin2k/driver-presence/docs"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, mode types.ServiceMode) {
	// System Health
	mux.HandleFunc("GET /health", routes.health.HealthCheck)

	setupSwaggerRoutes(mux)
	setupMetricsRoute(mux)
	setupLocationRoutes(mux, routes)

	if mode == types.AgentMode {
		setupSessionRoutes(mux, routes)
		setupAvailabilityRoutes(mux, routes)
		setupRideRoutes(mux, routes)
		mux.HandleFunc("GET /ws/events", routes.events.HandleWS) // UI event stream
	}
}

// setupLocationRoutes feeds device fixes and permission into the agent
func setupLocationRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("POST /location", routes.location.Update)
	mux.HandleFunc("GET /location", routes.location.Get)
	mux.HandleFunc("PUT /location/permission", routes.location.SetPermission)
}

func setupSessionRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("POST /session", routes.session.Login)
	mux.HandleFunc("GET /session", routes.session.Get)
	mux.HandleFunc("POST /session/logout", routes.session.Logout)
}

func setupAvailabilityRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("GET /availability", routes.availability.Get)
	mux.HandleFunc("POST /availability/online", routes.availability.GoOnline)   // Driver goes online
	mux.HandleFunc("POST /availability/offline", routes.availability.GoOffline) // Driver goes offline
	mux.HandleFunc("POST /availability/sync", routes.availability.Sync)         // Reconcile with backend
	mux.HandleFunc("PUT /availability/status", routes.availability.SetStatus)
}

func setupRideRoutes(mux *http.ServeMux, routes *handlers) {
	for _, step := range []string{"accept", "reject", "arrived", "pickup", "dropoff"} {
		mux.HandleFunc("POST /rides/{ride_id}/"+step, routes.ride.Milestone(step))
	}
}

// setupSwaggerRoutes serves the Swagger UI and the OpenAPI document
func setupSwaggerRoutes(mux *http.ServeMux) {
	swaggerURL := httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName())
	mux.HandleFunc("/swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
