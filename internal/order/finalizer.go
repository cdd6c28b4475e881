package order

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/fastreseller/orderbot/internal/logger"
)

// Record is the durable trace of one finalized order. Write-once:
// nothing in this package ever mutates or deletes an appended record.
type Record struct {
	Time     time.Time
	UserID   int64
	Username string
	Product  string
	Quantity int
	Details  string
	Total    int
	Ref      string
}

// Mailer delivers the order notification to the seller, or fails.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RecordLog appends finalized orders to durable storage.
type RecordLog interface {
	Append(rec Record) error
}

const mailSubject = "Nuovo ordine FastReseller"

// Finalizer converts a confirmed draft into a seller notification and
// a durable record. It never retries: delivery failure is reported to
// the caller, and an order is only recorded once its notification
// actually went out.
type Finalizer struct {
	mailer   Mailer
	records  RecordLog
	receiver string
	now      func() time.Time
	newRef   func() string
}

// NewFinalizer builds a finalizer delivering to the given seller address.
func NewFinalizer(mailer Mailer, records RecordLog, receiver string) *Finalizer {
	return &Finalizer{
		mailer:   mailer,
		records:  records,
		receiver: receiver,
		now:      time.Now,
		newRef:   uuid.NewString,
	}
}

// Finalize emails the order summary and, on delivery success, appends
// the record. Each call sends exactly one email; there is no
// deduplication across calls. A record-append failure after a
// successful send is an operator problem, not a user one: the user
// already got their confirmation, so it is logged and swallowed.
func (f *Finalizer) Finalize(ctx context.Context, d *Draft) (string, error) {
	ref := f.newRef()
	body := fmt.Sprintf(
		"Nuovo ordine da FastReseller Bot:\n\nRiferimento: %s\nProdotto: %s\nQuantità: %d\nDettagli: %s\nTotale: %d €\nUtente: %s (%d)\n",
		ref, d.ProductName, d.Quantity, d.Details, d.Total(), d.Username, d.UserID,
	)

	if err := f.mailer.Send(ctx, f.receiver, mailSubject, body); err != nil {
		return "", fmt.Errorf("finalize order %s: %w", ref, err)
	}

	rec := Record{
		Time:     f.now().UTC(),
		UserID:   d.UserID,
		Username: d.Username,
		Product:  d.ProductName,
		Quantity: d.Quantity,
		Details:  d.Details,
		Total:    d.Total(),
		Ref:      ref,
	}
	if err := f.records.Append(rec); err != nil {
		logger.Error(ctx, "order", "record.append_failed",
			slog.String("order_ref", ref),
			slog.Int64("user_id", d.UserID),
			slog.String("err", err.Error()),
		)
	}
	return ref, nil
}
