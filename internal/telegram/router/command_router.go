package router

import (
	"time"

	"log/slog"

	"github.com/fastreseller/orderbot/internal/logger"
	tg "github.com/fastreseller/orderbot/internal/telegram"
	"github.com/fastreseller/orderbot/internal/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOpts := middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		h := middleware.WithAdminCheck(adminOpts, def.AdminOnly, def.Handler)
		name := normalizeHandlerName(cmd)
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  wrapCommand(name, h),
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}

func wrapCommand(name string, h tele.HandlerFunc) tele.HandlerFunc {
	inner := func(c tele.Context) error {
		start := time.Now()
		return handleWithSummary(c, name, start, "", "", func() error {
			return h(c)
		})
	}
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(inner))
}
