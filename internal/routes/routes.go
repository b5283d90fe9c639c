package routes

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/safeline/safeline/internal/alerts"
	"github.com/safeline/safeline/internal/auth"
	"github.com/safeline/safeline/internal/config"
	"github.com/safeline/safeline/internal/identity"
	"github.com/safeline/safeline/internal/ledger"
	"github.com/safeline/safeline/internal/middleware"
)

// Deps aggregates shared dependencies required to wire routes. Exactly one of
// DB and SQL is set, matching Cfg.StoreDriver; both are nil for the memory driver.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	SQL    *sql.DB
	Cache  *redis.Client
	Logger *slog.Logger
}

type stores struct {
	users    identity.Repository
	contacts ledger.Ledger
	alerts   alerts.Repository
}

func openStores(d Deps) (stores, error) {
	switch d.Cfg.StoreDriver {
	case config.DriverPostgres:
		if d.DB == nil {
			return stores{}, fmt.Errorf("postgres pool is required when STORE_DRIVER=%s", config.DriverPostgres)
		}
		return stores{
			users:    identity.NewPostgresRepository(d.DB),
			contacts: ledger.NewPostgresLedger(d.DB),
			alerts:   alerts.NewPostgresRepository(d.DB),
		}, nil
	case config.DriverSQLite:
		if d.SQL == nil {
			return stores{}, fmt.Errorf("sqlite handle is required when STORE_DRIVER=%s", config.DriverSQLite)
		}
		return stores{
			users:    identity.NewSQLiteRepository(d.SQL),
			contacts: ledger.NewSQLiteLedger(d.SQL),
			alerts:   alerts.NewSQLiteRepository(d.SQL),
		}, nil
	case config.DriverMemory:
		return stores{
			users:    identity.NewMemoryRepository(),
			contacts: ledger.NewInMemory(),
			alerts:   alerts.NewMemoryRepository(),
		}, nil
	default:
		return stores{}, fmt.Errorf("unsupported store driver %q", d.Cfg.StoreDriver)
	}
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	st, err := openStores(d)
	if err != nil {
		return err
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	app.Use(middleware.StoreTimeout(d.Cfg.StoreTimeout))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var sessionStore auth.SessionStore
	if d.Cache != nil {
		sessionStore = auth.NewRedisSessionStore(d.Cache)
	} else {
		sessionStore = auth.NewMemorySessionStore()
	}
	tokens := auth.NewTokenManager(d.Cfg.SessionSecret, d.Cfg.AppName, d.Cfg.SessionTTL)
	sessions := auth.NewService(tokens, sessionStore, d.Logger)

	identitySvc := identity.NewService(st.users, identity.NewBcryptVerifier(d.Cfg.BcryptCost), d.Logger)
	ledgerSvc := ledger.NewService(st.contacts, identitySvc, d.Logger)
	alertSvc := alerts.NewService(st.alerts, d.Logger)

	requireSession := middleware.RequireSession(sessions)
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit, d.Logger)

	RegisterAuthRoutes(app, auth.NewHandler(identitySvc, sessions), rateLimiter, requireSession)
	RegisterContactRoutes(app, ledger.NewHandler(ledgerSvc), requireSession)
	// Only alert recording is replayable. Login, register and contact saves
	// must always run so no caller ever receives another request's response.
	var idempotent fiber.Handler
	if d.Cache != nil {
		idempotent = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterAlertRoutes(app, alerts.NewHandler(alertSvc, d.Cfg.AdminPageSize), idempotent, adminGuard(d.Cfg))

	return nil
}
