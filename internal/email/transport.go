package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/shinyyama/centace-backend/internal/config"
	"github.com/shinyyama/centace-backend/internal/logging"
	"github.com/shinyyama/centace-backend/internal/metrics"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPTransport delivers one message per call over a fresh SMTP session.
// Repeated failures open the breaker and later sends fail fast until it
// half-opens again.
type SMTPTransport struct {
	cfg     config.SMTPConfig
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[struct{}]
}

func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	metrics.EmailBreakerState.Set(0)
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("email: breaker state change")
			metrics.EmailBreakerState.Set(metrics.BreakerStateValue(to.String()))
		},
	})
	return &SMTPTransport{cfg: cfg, timeout: 15 * time.Second, cb: cb}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	_, err := t.cb.Execute(func() (struct{}, error) {
		return struct{}{}, t.send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("smtp unavailable: %w", err)
	}
	return err
}

func (t *SMTPTransport) send(ctx context.Context, msg Message) error {
	raw, err := Compose(t.cfg.From, t.cfg.FromName, msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	dialer := &net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect smtp: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if t.cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if t.cfg.User != "" && t.cfg.Password != "" {
		if err := client.Auth(smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(t.cfg.From); err != nil {
		return fmt.Errorf("smtp sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	_ = client.Quit()
	return nil
}

// Compose builds a multipart/alternative message with a plain text part
// followed by an HTML part.
func Compose(from, fromName string, msg Message) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: fromName, Address: from}})
	h.SetAddressList("To", []*mail.Address{{Name: msg.ToName, Address: msg.To}})
	h.SetSubject(msg.Subject)
	h.SetMessageID(uuid.NewString() + "@centace")

	var buf bytes.Buffer
	w, err := mail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	if err := writePart(w, "text/plain", msg.Text); err != nil {
		return nil, err
	}
	if err := writePart(w, "text/html", msg.HTML); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(w *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	pw, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("compose %s: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return fmt.Errorf("compose %s: %w", contentType, err)
	}
	return pw.Close()
}

// LogTransport stands in for SMTP when no mail server is configured.
type LogTransport struct{}

func (LogTransport) Send(ctx context.Context, msg Message) error {
	logging.Ctx(ctx).Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("email: smtp disabled, message logged only")
	return nil
}

func NewTransport(cfg config.SMTPConfig) Transport {
	if !cfg.Enabled() {
		return LogTransport{}
	}
	return NewSMTPTransport(cfg)
}
