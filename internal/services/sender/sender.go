// Package sender отрисовывает письма по шаблонам и отправляет их через SMTP.
package sender

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/magabrotheeeer/sublimall/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/sublimall/internal/lib/sl"
	"github.com/magabrotheeeer/sublimall/internal/lib/smtp"
	"github.com/magabrotheeeer/sublimall/internal/models"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// SenderService отправляет уведомления напрямую через SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	from      string
	templates *template.Template
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface, from string) (*SenderService, error) {
	const op = "sender.NewSenderService"
	tmpl, err := template.New("mail").Option("missingkey=error").ParseFS(templatesFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &SenderService{
		transport: transport,
		from:      from,
		templates: tmpl,
		log:       log,
	}, nil
}

// Notify отрисовывает и отправляет письмо.
func (s *SenderService) Notify(ctx context.Context, n models.Notification) error {
	const op = "sender.Notify"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	body, err := s.Render(n)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.sendEmail([]string{n.To}, n.Subject, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HandleMessage обрабатывает сообщение из почтовой очереди.
// Битое тело и неизвестный шаблон возвращают rabbitmq.ErrPermanent.
func (s *SenderService) HandleMessage(body []byte) error {
	const op = "sender.HandleMessage"
	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		s.log.Error("failed to unmarshal message body", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrPermanent, err)
	}
	if s.templates.Lookup(n.Template+".txt") == nil {
		return fmt.Errorf("%s: %w: unknown template %q", op, rabbitmq.ErrPermanent, n.Template)
	}
	return s.Notify(context.Background(), n)
}

// Render возвращает текст письма.
func (s *SenderService) Render(n models.Notification) (string, error) {
	const op = "sender.Render"
	tmpl := s.templates.Lookup(n.Template + ".txt")
	if tmpl == nil {
		return "", fmt.Errorf("%s: unknown template %q", op, n.Template)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, n.Context); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return buf.String(), nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(s.from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
