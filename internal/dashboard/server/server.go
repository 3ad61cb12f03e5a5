package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/apiclient"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/auth"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/httpx"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/common/logtrace"
	commonmiddleware "github.com/seatbelt-tracker/seatbelt-admin/internal/common/middleware"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/dashboard/config"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/identity"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/session"
)

const (
	ServerVersion = "Seatbelt Dashboard: 0.1.0"
	ApiVersion    = "v1"

	// LoginPath is where browsers without a session are sent.
	LoginPath = "/login"
)

// Deps are the collaborators a dashboard server is built from.
type Deps struct {
	Store      session.Store
	Identity   identity.Provider
	APIBaseURL string
	// HTTPClient is used for backend calls when set.
	HTTPClient *http.Client
	Clock      func() time.Time
}

type DashboardServer struct {
	Router   *chi.Mux
	provider *auth.Provider
	client   *apiclient.Client
	registry *prometheus.Registry
	metrics  *metrics
	now      func() time.Time
}

func CreateNewServer(ctx context.Context, deps Deps) (*DashboardServer, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("session store not defined")
	}
	if deps.Identity == nil {
		return nil, fmt.Errorf("identity provider not defined")
	}
	if deps.APIBaseURL == "" {
		return nil, fmt.Errorf("api url not defined")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	s := &DashboardServer{
		Router:   chi.NewRouter(),
		registry: prometheus.NewRegistry(),
		now:      deps.Clock,
	}
	s.metrics = newMetrics(s.registry)
	s.provider = auth.NewProvider(deps.Store, deps.Identity, auth.WithClock(deps.Clock))

	opts := []apiclient.Option{
		apiclient.WithObserver(s.metrics),
		apiclient.WithClock(deps.Clock),
	}
	if deps.HTTPClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(deps.HTTPClient))
	}
	s.client = apiclient.NewClient(deps.APIBaseURL, deps.Store, opts...)

	s.provider.Start(ctx)
	return s, nil
}

func (s *DashboardServer) MountHandlers() {
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	s.Router.Use(s.metrics.instrument)
	if config.Config().HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.Router.Route("/", s.mountResourceHandlers)
	if logtrace.IsTraceEnabled() {
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			log.Trace().Str("method", method).Str("route", route).Msg("route")
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("unable to walk routes")
		}
	}
}

func (s *DashboardServer) mountResourceHandlers(r chi.Router) {
	r.Get("/version", s.getVersion)
	r.Get(LoginPath, httpx.WrapHttpRsp(s.getSession))
	r.Post(LoginPath, httpx.WrapHttpRsp(s.login))
	r.Post("/logout", httpx.WrapHttpRsp(s.logout))
	r.Get("/session", httpx.WrapHttpRsp(s.getSession))
	if config.Config().Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireSession(s.provider, LoginPath))
		r.Route("/users", s.mountUserHandlers)
		r.Route("/sites", s.mountSiteHandlers)
		r.Route("/images", s.mountImageHandlers)
		r.Route("/data", s.mountDataHandlers)
		r.Get("/stats", httpx.WrapHttpRsp(s.getStats))
	})
}

type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (s *DashboardServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &GetVersionRsp{
		ServerVersion: ServerVersion,
		ApiVersion:    ApiVersion,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func (s *DashboardServer) HandleCORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   config.Config().AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Accept-Encoding"},
		ExposedHeaders:   []string{"Location", "Content-Disposition", commonmiddleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(next)
}
