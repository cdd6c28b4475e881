// Package mail delivers order notifications to the seller over SMTP.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"log/slog"

	"github.com/fastreseller/orderbot/internal/config"
	"github.com/fastreseller/orderbot/internal/logger"
)

// DeliveryError reports a failed delivery attempt. The finalizer treats
// it as a per-order failure; nothing retries it inside this process.
type DeliveryError struct {
	Addr string
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("mail: delivery via %s failed: %v", e.Addr, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Code returns a stable error identifier for structured logs.
func (e *DeliveryError) Code() string { return "DELIVERY_ERROR" }

// Sender sends plain-text mail through a single configured SMTP relay.
type Sender struct {
	host     string
	port     int
	from     string
	password string
}

// NewSender builds a sender from the mail section of the config.
// Config validation happens in config.Normalize, not here.
func NewSender(cfg config.MailConfig) *Sender {
	return &Sender{
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.Address,
		password: cfg.Password,
	}
}

// Send delivers one message and returns a *DeliveryError on failure.
// The SMTP dialog runs in its own goroutine so the caller's context
// can bound a stuck relay.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	msg := s.compose(to, subject, body)

	var auth smtp.Auth
	if s.password != "" {
		auth = smtp.PlainAuth("", s.from, s.password, s.host)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- smtp.SendMail(addr, auth, s.from, []string{to}, msg)
	}()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errCh:
	}

	if err != nil {
		logger.Error(ctx, "mail", "send.fail",
			slog.String("endpoint", addr),
			slog.String("err", err.Error()),
		)
		return &DeliveryError{Addr: addr, Err: err}
	}
	logger.Debug(ctx, "mail", "send.ok",
		slog.String("endpoint", addr),
	)
	return nil
}

func (s *Sender) compose(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
