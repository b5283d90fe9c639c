package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/safeline/safeline/internal/apperror"
	"github.com/safeline/safeline/internal/config"
	"github.com/safeline/safeline/internal/middleware"
	"github.com/safeline/safeline/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// Stores carries the lifecycle-scoped handles opened by main. Which fields are
// set depends on the configured store driver.
type Stores struct {
	Postgres *pgxpool.Pool
	SQLite   *sql.DB
	Cache    *redis.Client
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, st Stores, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             1 << 20,
		DisableStartupMessage: !cfg.IsDev(),
		ErrorHandler:          errorHandler(logger),
	})

	deps := routes.Deps{Cfg: cfg, DB: st.Postgres, SQL: st.SQLite, Cache: st.Cache, Logger: logger}
	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders every failure as {"ok":false,"error":...}. Only
// classified messages reach the client; 5xx causes go to the log.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			appErr   *apperror.Error
			fiberErr *fiber.Error
			status   int
			msg      string
		)
		switch {
		case errors.As(err, &appErr):
			status, msg = apperror.Describe(err)
		case errors.As(err, &fiberErr):
			status, msg = fiberErr.Code, fiberErr.Message
		default:
			status, msg = apperror.Describe(err)
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("request_id", middleware.RequestIDFrom(c)),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
			if fiberErr == nil {
				msg = "internal server error"
			}
		}
		return c.Status(status).JSON(fiber.Map{"ok": false, "error": msg})
	}
}
