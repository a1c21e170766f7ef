package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "livestock-tracking/docs"
	mem "livestock-tracking/internal/adapters/storage/memory"
	pg "livestock-tracking/internal/adapters/storage/postgres"
	"livestock-tracking/internal/domain/cattle"
	"livestock-tracking/internal/domain/devices"
	"livestock-tracking/internal/domain/users"
	"livestock-tracking/internal/middleware"
	"livestock-tracking/internal/platform/logger"
	"livestock-tracking/internal/platform/metrics"
	"livestock-tracking/internal/platform/respond"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger logger.Logger

	// Costo bcrypt; 0 => bcrypt.DefaultCost.
	HashCost int
}

// store es lo que ambos backends exponen además de los repos.
type store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithinReadOnlyTx(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
}

type repos struct {
	kind string

	devices  devices.Repository
	cattle   cattle.Repository
	metadata cattle.MetadataRepository
	sensors  cattle.SensorDataRepository
	users    users.Repository
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	var (
		st  store
		rep repos
	)
	if opts.DB != nil {
		st = pg.NewStore(opts.DB)
		rep = repos{
			kind:     "postgres",
			devices:  pg.NewDevicesRepo(opts.DB),
			cattle:   pg.NewCattleRepo(opts.DB),
			metadata: pg.NewMetadataRepo(opts.DB),
			sensors:  pg.NewSensorDataRepo(opts.DB),
			users:    pg.NewUsersRepo(opts.DB),
		}
	} else {
		ms := mem.NewStore()
		st = ms
		rep = repos{
			kind:     "memory",
			devices:  mem.NewDeviceRepo(ms),
			cattle:   mem.NewCattleRepo(ms),
			metadata: mem.NewMetadataRepo(ms),
			sensors:  mem.NewSensorDataRepo(ms),
			users:    mem.NewUserRepo(ms),
		}
	}
	log.Info("storage selected", map[string]any{"storage": rep.kind})

	m := metrics.NewHTTP()

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(log))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.RequestLogger(log))

	r.Get("/health", healthHandler(st, rep.kind))
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Services por módulo
	devicesSvc := devices.NewService(rep.devices, st, log)
	cattleSvc := cattle.NewService(rep.cattle, rep.metadata, rep.sensors, devicesSvc, st, log)
	usersSvc := users.NewService(rep.users, st, users.BcryptHasher{Cost: opts.HashCost}, log)

	// Rutas por módulo
	devices.RegisterRoutes(r, devicesSvc, log, cattle.DeviceCattleRoutes(cattleSvc, log))
	cattle.RegisterRoutes(r, cattleSvc, log)
	users.RegisterRoutes(r, usersSvc, log)

	return r
}

// healthHandler godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func healthHandler(st store, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unavailable",
				"storage": kind,
			})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"storage": kind,
		})
	}
}
