package bot

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/fastreseller/orderbot/internal/catalog"
	"github.com/fastreseller/orderbot/internal/config"
	"github.com/fastreseller/orderbot/internal/health"
	"github.com/fastreseller/orderbot/internal/logger"
	"github.com/fastreseller/orderbot/internal/mail"
	"github.com/fastreseller/orderbot/internal/order"
	"github.com/fastreseller/orderbot/internal/orderlog"
	"github.com/fastreseller/orderbot/internal/telegram"
	tghelpers "github.com/fastreseller/orderbot/internal/telegram/helpers"
	"github.com/fastreseller/orderbot/internal/telegram/router"

	tele "gopkg.in/telebot.v4"
)

const msgTooFast = "Troppi messaggi, riprova tra qualche secondo."

// App wires the catalog, order flow, mail delivery, and the health endpoint.
type App struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	store   order.Store
	machine *order.Machine
	records *orderlog.Log
	health  *health.Server
	reg     *telegram.Registry

	janitorStop chan struct{}
}

// New builds the application from loaded configuration.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config provided")
	}

	cat, err := buildCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("bot: catalog load failed: %w", err)
	}

	records, err := orderlog.Open(cfg.Orders.LogFile)
	if err != nil {
		return nil, fmt.Errorf("bot: order log open failed: %w", err)
	}

	mailer := mail.NewSender(cfg.Mail)
	fin := order.NewFinalizer(mailer, records, cfg.Mail.Receiver)
	store := order.NewMemoryStore()
	machine := order.NewMachine(cat, store, fin)

	app := &App{
		cfg:         cfg,
		catalog:     cat,
		store:       store,
		machine:     machine,
		records:     records,
		health:      health.NewServer(cfg.Health.Listen),
		reg:         telegram.NewRegistry(),
		janitorStop: make(chan struct{}),
	}

	app.registerCommands()
	app.registerOrderFlow()
	app.registerModeration()

	return app, nil
}

func buildCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.File == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(cfg.Catalog.File)
}

// RunOptions assembles the Telegram runtime wiring for this app.
func (a *App) RunOptions() telegram.RunOptions {
	onLimited := func(c tele.Context) error {
		return tghelpers.SendText(c, msgTooFast)
	}

	routes := router.CommandRoutes(a.reg, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.onAdminReject,
	})
	routes = append(routes, router.TextRoute(&orderFlow{app: a}, a.reg, router.TextOptions{}))
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{}))

	return telegram.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: telegram.DefaultMiddlewares(a.cfg, onLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt telegram.Runtime) error {
			a.health.Start()
			go a.runJanitor()
			return nil
		},
		OnStop: func(ctx context.Context, rt telegram.Runtime) error {
			close(a.janitorStop)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.health.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "health", "shutdown.fail",
					slog.String("err", err.Error()),
				)
			}
			return a.records.Close()
		},
	}
}

// runJanitor drops order drafts idle beyond the configured TTL.
func (a *App) runJanitor() {
	ttl := time.Duration(a.cfg.Orders.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		return
	}

	interval := ttl / 2
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.janitorStop:
			return
		case <-ticker.C:
			purged := a.store.PurgeIdle(ttl)
			if purged > 0 {
				logger.Info(context.Background(), "order", "sessions.purged",
					slog.Int("purged", purged),
					slog.Int("sessions", a.store.Len()),
				)
			}
		}
	}
}

func (a *App) onAdminReject(c tele.Context) error {
	return tghelpers.SendText(c, "Comando riservato all'amministratore.")
}
