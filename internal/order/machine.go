package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/fastreseller/orderbot/internal/catalog"
	"github.com/fastreseller/orderbot/internal/logger"
)

// User-facing copy. The shop talks Italian, the code does not.
const (
	msgWelcome         = "Benvenuto su FastReseller Bot! Scegli un prodotto:"
	msgUnknownProduct  = "Prodotto non disponibile. Scegli un prodotto dal catalogo:"
	msgChosen          = "Hai scelto: %s\nQuante unità vuoi ordinare?"
	msgInvalidQuantity = "Per favore, inserisci un numero valido."
	msgAskDetails      = "Inserisci eventuali dettagli o indirizzo di spedizione:"
	msgSummary         = "Riepilogo ordine:\nProdotto: %s\nQuantità: %d\nDettagli: %s\nTotale: %d €\n\nConfermi l'ordine? (si/no)"
	msgConfirmed       = "Ordine ricevuto! Ti contatteremo presto."
	msgDeliveryFailed  = "Non siamo riusciti a inoltrare il tuo ordine. Riprova più tardi."
	msgCancelled       = "Ordine annullato."
	msgAnswerYesNo     = "Rispondi con 'si' o 'no'."
	msgNoActiveOrder   = "Nessun ordine in corso. Usa /start per iniziarne uno."
)

const (
	tokenYes = "si"
	tokenNo  = "no"
)

// Conversation errors. All of them are recovered locally into a
// re-prompt; they exist for logging and tests, never to crash a handler.
var (
	ErrUnknownProduct  = errors.New("order: unknown product key")
	ErrInvalidQuantity = errors.New("order: quantity must be a positive integer")
	ErrNoSession       = errors.New("order: no active draft for user")
)

// Choice is one selectable product offered with a prompt.
type Choice struct {
	Key   string
	Label string
}

// Reply is the machine's answer to one inbound event: the text to send
// back and, when prompting for a product, the selectable choices.
type Reply struct {
	Text    string
	Choices []Choice
}

// Machine drives per-user drafts through the conversation states.
// It is transport-agnostic: callers feed it events and send its
// replies; it never talks to Telegram itself.
type Machine struct {
	catalog *catalog.Catalog
	store   Store
	fin     *Finalizer
	now     func() time.Time
}

// NewMachine wires the conversation over a catalog, a store, and a finalizer.
func NewMachine(cat *catalog.Catalog, store Store, fin *Finalizer) *Machine {
	return &Machine{
		catalog: cat,
		store:   store,
		fin:     fin,
		now:     time.Now,
	}
}

// Active reports whether the user has a non-terminal draft.
func (m *Machine) Active(userID int64) bool {
	_, ok := m.store.Get(userID)
	return ok
}

// Begin starts a fresh order conversation. An existing draft is
// silently overwritten; there is no resume.
func (m *Machine) Begin(ctx context.Context, userID int64, username string) Reply {
	d := &Draft{
		UserID:    userID,
		Username:  username,
		State:     StateAwaitingProduct,
		UpdatedAt: m.now(),
	}
	m.store.Put(userID, d)
	logger.Debug(ctx, "order", "session.begin",
		slog.Int64("user_id", userID),
		slog.String("state", string(d.State)),
	)
	return Reply{Text: msgWelcome, Choices: m.choices()}
}

// SelectProduct handles a product pick while AwaitingProduct.
// Unknown keys re-prompt without touching the draft; picks arriving in
// a later state re-issue that state's prompt instead.
func (m *Machine) SelectProduct(ctx context.Context, userID int64, key string) Reply {
	d, ok := m.store.Get(userID)
	if !ok {
		logger.Debug(ctx, "order", "session.missing",
			slog.Int64("user_id", userID),
			slog.String("err", ErrNoSession.Error()),
		)
		return Reply{Text: msgNoActiveOrder}
	}
	if d.State != StateAwaitingProduct {
		return m.reprompt(d)
	}

	p, found := m.catalog.Lookup(key)
	if !found {
		logger.Debug(ctx, "order", "product.invalid",
			slog.Int64("user_id", userID),
			slog.String("payload", logger.SanitizeLimit(key, 64)),
			slog.String("err", ErrUnknownProduct.Error()),
		)
		return Reply{Text: msgUnknownProduct, Choices: m.choices()}
	}

	d.ProductKey = p.Key
	d.ProductName = p.Name
	d.UnitPrice = p.Price
	d.State = StateAwaitingQuantity
	d.UpdatedAt = m.now()
	m.store.Put(userID, d)

	logger.Debug(ctx, "order", "product.selected",
		slog.Int64("user_id", userID),
		slog.String("product", p.Key),
		slog.String("state", string(d.State)),
	)
	return Reply{Text: fmt.Sprintf(msgChosen, p.Name)}
}

// Input handles free text according to the draft's current state.
func (m *Machine) Input(ctx context.Context, userID int64, text string) Reply {
	d, ok := m.store.Get(userID)
	if !ok {
		logger.Debug(ctx, "order", "session.missing",
			slog.Int64("user_id", userID),
			slog.String("err", ErrNoSession.Error()),
		)
		return Reply{Text: msgNoActiveOrder}
	}

	switch d.State {
	case StateAwaitingProduct:
		// Typed product keys are accepted as well as keyboard taps.
		return m.SelectProduct(ctx, userID, strings.TrimSpace(strings.ToLower(text)))
	case StateAwaitingQuantity:
		return m.handleQuantity(ctx, d, text)
	case StateAwaitingDetails:
		return m.handleDetails(ctx, d, text)
	case StateAwaitingConfirmation:
		return m.handleConfirmation(ctx, d, text)
	default:
		m.store.Remove(userID)
		return Reply{Text: msgNoActiveOrder}
	}
}

func (m *Machine) handleQuantity(ctx context.Context, d *Draft, text string) Reply {
	qty, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || qty < 1 {
		logger.Debug(ctx, "order", "quantity.invalid",
			slog.Int64("user_id", d.UserID),
			slog.String("payload", logger.SanitizeLimit(text, 64)),
			slog.String("err", ErrInvalidQuantity.Error()),
		)
		return Reply{Text: msgInvalidQuantity}
	}

	d.Quantity = qty
	d.State = StateAwaitingDetails
	d.UpdatedAt = m.now()
	m.store.Put(d.UserID, d)
	return Reply{Text: msgAskDetails}
}

func (m *Machine) handleDetails(ctx context.Context, d *Draft, text string) Reply {
	d.Details = text
	d.State = StateAwaitingConfirmation
	d.UpdatedAt = m.now()
	m.store.Put(d.UserID, d)

	logger.Debug(ctx, "order", "summary.shown",
		slog.Int64("user_id", d.UserID),
		slog.String("product", d.ProductKey),
		slog.Int("quantity", d.Quantity),
		slog.Int("total", d.Total()),
	)
	return Reply{Text: fmt.Sprintf(msgSummary, d.ProductName, d.Quantity, d.Details, d.Total())}
}

func (m *Machine) handleConfirmation(ctx context.Context, d *Draft, text string) Reply {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case tokenYes:
		// The draft is gone whether finalization succeeds or not;
		// retrying belongs to the user, not to a stored draft.
		ref, err := m.fin.Finalize(ctx, d)
		m.store.Remove(d.UserID)
		if err != nil {
			logger.Error(ctx, "order", "finalize.failed",
				slog.Int64("user_id", d.UserID),
				slog.String("product", d.ProductKey),
				slog.String("err", err.Error()),
			)
			return Reply{Text: msgDeliveryFailed}
		}
		logger.Info(ctx, "order", "finalize.ok",
			slog.Int64("user_id", d.UserID),
			slog.String("product", d.ProductKey),
			slog.Int("quantity", d.Quantity),
			slog.Int("total", d.Total()),
			slog.String("order_ref", ref),
		)
		return Reply{Text: msgConfirmed}
	case tokenNo:
		m.store.Remove(d.UserID)
		logger.Info(ctx, "order", "session.cancelled",
			slog.Int64("user_id", d.UserID),
			slog.String("product", d.ProductKey),
		)
		return Reply{Text: msgCancelled}
	default:
		return Reply{Text: msgAnswerYesNo}
	}
}

func (m *Machine) choices() []Choice {
	products := m.catalog.List()
	out := make([]Choice, 0, len(products))
	for _, p := range products {
		out = append(out, Choice{Key: p.Key, Label: p.Name})
	}
	return out
}

// reprompt re-issues the prompt matching the draft's current state
// without mutating it.
func (m *Machine) reprompt(d *Draft) Reply {
	switch d.State {
	case StateAwaitingQuantity:
		return Reply{Text: fmt.Sprintf(msgChosen, d.ProductName)}
	case StateAwaitingDetails:
		return Reply{Text: msgAskDetails}
	case StateAwaitingConfirmation:
		return Reply{Text: msgAnswerYesNo}
	default:
		return Reply{Text: msgWelcome, Choices: m.choices()}
	}
}
