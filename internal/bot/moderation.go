package bot

import (
	"time"

	"log/slog"

	"github.com/fastreseller/orderbot/internal/logger"
	"github.com/fastreseller/orderbot/internal/telegram/commands"
	tghelpers "github.com/fastreseller/orderbot/internal/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const (
	msgModerationReply  = "Rispondi al messaggio dell'utente da moderare."
	msgModerationGroup  = "Questo comando funziona solo nei gruppi."
	msgModerationFailed = "Operazione non riuscita, riprova."

	muteDuration = 24 * time.Hour
)

func (a *App) registerModeration() {
	a.reg.RegisterCommand("/ban", commands.Command{
		Handler:     a.handleBan,
		Description: "Espelli definitivamente un utente",
		AdminOnly:   true,
		Hidden:      true,
	})
	a.reg.RegisterCommand("/kick", commands.Command{
		Handler:     a.handleKick,
		Description: "Rimuovi un utente dal gruppo",
		AdminOnly:   true,
		Hidden:      true,
	})
	a.reg.RegisterCommand("/mute", commands.Command{
		Handler:     a.handleMute,
		Description: "Silenzia un utente per 24 ore",
		AdminOnly:   true,
		Hidden:      true,
	})
}

// moderationTarget extracts the user targeted by a moderation command.
// The command must be sent in a group as a reply to the target's message.
func moderationTarget(c tele.Context) (*tele.User, bool) {
	chat := c.Chat()
	if chat == nil || (chat.Type != tele.ChatGroup && chat.Type != tele.ChatSuperGroup) {
		_ = tghelpers.SendText(c, msgModerationGroup)
		return nil, false
	}
	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Sender == nil {
		_ = tghelpers.SendText(c, msgModerationReply)
		return nil, false
	}
	return msg.ReplyTo.Sender, true
}

func (a *App) handleBan(c tele.Context) error {
	target, ok := moderationTarget(c)
	if !ok {
		return nil
	}
	member := &tele.ChatMember{User: target}
	if err := c.Bot().Ban(c.Chat(), member); err != nil {
		return a.moderationFailed(c, "ban", target.ID, err)
	}
	return tghelpers.SendText(c, "Utente bannato: "+displayName(target))
}

func (a *App) handleKick(c tele.Context) error {
	target, ok := moderationTarget(c)
	if !ok {
		return nil
	}
	// Kick is a ban immediately followed by an unban so the user can rejoin.
	member := &tele.ChatMember{User: target}
	if err := c.Bot().Ban(c.Chat(), member); err != nil {
		return a.moderationFailed(c, "kick", target.ID, err)
	}
	if err := c.Bot().Unban(c.Chat(), target); err != nil {
		return a.moderationFailed(c, "kick", target.ID, err)
	}
	return tghelpers.SendText(c, "Utente rimosso: "+displayName(target))
}

func (a *App) handleMute(c tele.Context) error {
	target, ok := moderationTarget(c)
	if !ok {
		return nil
	}
	member := &tele.ChatMember{
		User:            target,
		Rights:          tele.NoRights(),
		RestrictedUntil: time.Now().Add(muteDuration).Unix(),
	}
	if err := c.Bot().Restrict(c.Chat(), member); err != nil {
		return a.moderationFailed(c, "mute", target.ID, err)
	}
	return tghelpers.SendText(c, "Utente silenziato per 24 ore: "+displayName(target))
}

func (a *App) moderationFailed(c tele.Context, action string, targetID int64, err error) error {
	ctx := tghelpers.BuildContext(c)
	logger.Warn(ctx, "tg", "moderation.fail",
		slog.String("action", action),
		slog.Int64("target_id", targetID),
		slog.String("err", err.Error()),
	)
	return tghelpers.SendText(c, msgModerationFailed)
}

func displayName(u *tele.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "utente"
}
