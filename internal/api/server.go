package api

import (
	"boilerroom-backend/internal/components/telemetry"
	"boilerroom-backend/internal/db"
	"boilerroom-backend/internal/enrichment"
	"boilerroom-backend/lib/restyutil"
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("boilerroom.internal.api")

type Cronjob interface {
	RunCronjob(ctx context.Context) (enrichment.CronjobSummary, error)
}

type Store interface {
	Profiles(ctx context.Context) ([]map[string]any, error)
	Game(ctx context.Context, gameId int64) (db.GameRecord, error)
}

type Options struct {
	// url polled by /renderStatus, it is expected to answer "online"
	RenderStatusUrl string
	// defaults to every origin
	AllowedOrigins []string
	// requests per minute per client ip, defaults to 120
	RequestsPerMinute int
	// defaults to 20 attempts, 8 seconds apart
	RenderAttempts int
	RenderInterval time.Duration
	// bounds a cronjob started over http, defaults to an hour
	CronjobTimeout time.Duration
}

func (o *Options) setDefaults() {
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	if o.RequestsPerMinute <= 0 {
		o.RequestsPerMinute = 120
	}
	if o.RenderAttempts <= 0 {
		o.RenderAttempts = 20
	}
	if o.RenderInterval <= 0 {
		o.RenderInterval = 8 * time.Second
	}
	if o.CronjobTimeout <= 0 {
		o.CronjobTimeout = time.Hour
	}
}

type Server struct {
	cronjob Cronjob
	store   Store
	status  *resty.Client
	options Options
	tel     telemetry.API
}

func NewServer(cronjob Cronjob, store Store, options Options, tel telemetry.API) Server {
	options.setDefaults()

	status := resty.New()
	status.SetTimeout(30 * time.Second)
	restyutil.InstrumentClient(status, tracer, nil)

	return Server{
		cronjob: cronjob,
		store:   store,
		status:  status,
		options: options,
		tel:     telemetry.NewScopedAPI("api", tel),
	}
}

// Handler returns the http handler serving every route.
func (s Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.options.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(s.options.RequestsPerMinute, time.Minute))

	r.Get("/", s.hello)
	r.Get("/status", s.serviceStatus)
	r.Get("/renderStatus", s.renderStatus)
	r.Get("/cronjob", s.runCronjob)
	r.Get("/supabase", s.profiles)
	r.Get("/games/{gameId}", s.game)

	return r
}

func (s Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.tel.ReportDebug(
			"request",
			middleware.GetReqID(r.Context()),
			r.Method, r.URL.Path,
			ww.Status(),
			time.Since(start).String(),
		)
	})
}
