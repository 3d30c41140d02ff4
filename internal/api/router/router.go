package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/imedsys/appointment-gateway/internal/apilog"
	httpmiddleware "github.com/imedsys/appointment-gateway/internal/http/middleware"
	"github.com/imedsys/appointment-gateway/internal/proxy"
	"github.com/imedsys/appointment-gateway/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Appointments       *proxy.Handler
	APILog             *apilog.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Per-IP throttle on the proxy surface. Zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Appointment proxy endpoints. Handlers enforce their own method so
	// a bad verb gets the JSON 405 instead of chi's plain-text default.
	if cfg.Appointments != nil {
		r.Route("/api", func(api chi.Router) {
			if cfg.RateLimitRPS > 0 {
				api.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
			}
			api.Route("/appointments", func(appt chi.Router) {
				appt.HandleFunc("/list", cfg.Appointments.List)
				appt.HandleFunc("/get-user", cfg.Appointments.GetUser)
				appt.HandleFunc("/create-new-user", cfg.Appointments.CreateNewUser)
				appt.HandleFunc("/update-user", cfg.Appointments.UpdateUser)
				appt.HandleFunc("/create-from-existing", cfg.Appointments.CreateFromExisting)
				appt.HandleFunc("/download-form", cfg.Appointments.DownloadForm)
			})

			// Legacy aliases kept for older dashboard builds.
			api.HandleFunc("/list", cfg.Appointments.List)
			api.HandleFunc("/create-user", cfg.Appointments.CreateUserLegacy)
			api.HandleFunc("/get-user", cfg.Appointments.GetUser)
		})
	}

	if cfg.APILog != nil {
		r.Route("/debug/logs", func(dbg chi.Router) {
			dbg.HandleFunc("/", cfg.APILog.List)
			dbg.HandleFunc("/stream", cfg.APILog.Stream)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","service":"appointment-gateway"}`))
}
