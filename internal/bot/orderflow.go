package bot

import (
	"strings"

	"github.com/fastreseller/orderbot/internal/order"
	tghelpers "github.com/fastreseller/orderbot/internal/telegram/helpers"
	"github.com/fastreseller/orderbot/internal/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// cbProduct is the callback key for product picks from the inline keyboard.
const cbProduct = "order_product"

// orderFlow bridges Telegram updates into the order state machine.
type orderFlow struct {
	app *App
}

// Active reports whether the user has an order conversation in progress.
func (f *orderFlow) Active(userID int64) bool {
	return f.app.machine.Active(userID)
}

// Handle feeds a text update into the state machine and renders the reply.
func (f *orderFlow) Handle(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	reply := f.app.machine.Input(ctx, sender.ID, c.Text())
	return renderReply(c, reply)
}

func (a *App) registerOrderFlow() {
	_ = a.reg.RegisterCallback(cbProduct, a.handleProductPick)
}

// beginOrder starts (or restarts) the order conversation for the sender.
func (a *App) beginOrder(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	reply := a.machine.Begin(ctx, sender.ID, sender.Username)
	return renderReply(c, reply)
}

// handleProductPick resolves an inline keyboard pick into a product selection.
func (a *App) handleProductPick(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	key := strings.TrimSpace(cb.Data)

	ctx := tghelpers.BuildContext(c)
	reply := a.machine.SelectProduct(ctx, sender.ID, key)
	return renderReply(c, reply)
}

// renderReply sends machine output, attaching an inline keyboard when the
// reply carries product choices.
func renderReply(c tele.Context, reply order.Reply) error {
	if reply.Text == "" {
		return nil
	}
	if len(reply.Choices) == 0 {
		return tghelpers.SendText(c, reply.Text)
	}

	buttons := make([]keyboard.InlineBtn, 0, len(reply.Choices))
	for _, choice := range reply.Choices {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   choice.Label,
			Unique: cbProduct,
			Data:   choice.Key,
		})
	}
	return tghelpers.SendKeyboard(c, reply.Text, keyboard.InlineButtons(buttons))
}
