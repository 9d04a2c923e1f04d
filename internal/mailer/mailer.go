package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"

	"github.com/shinyyama/market-backend/internal/config"
	"github.com/wneessen/go-mail"
)

const (
	TemplateActivation    = "activation.html"
	TemplateResetPassword = "reset_password.html"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// CodeData feeds both the activation and the reset password templates.
type CodeData struct {
	Name string
	Code string
}

type Message struct {
	To       string
	Subject  string
	Template string
	Data     interface{}
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

func Render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

type smtpMailer struct {
	client *mail.Client
	from   string
}

// New returns an SMTP mailer, or one that only logs when SMTP_HOST is unset.
func New(cfg *config.Config) (Mailer, error) {
	if cfg.SMTPHost == "" {
		return logMailer{}, nil
	}
	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPMail),
		mail.WithPassword(cfg.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, err
	}
	return &smtpMailer{client: client, from: cfg.SMTPMail}, nil
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	body, err := Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return err
	}
	if err := out.To(msg.To); err != nil {
		return err
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, body)
	return m.client.DialAndSendWithContext(ctx, out)
}

type logMailer struct{}

func (logMailer) Send(_ context.Context, msg Message) error {
	if _, err := Render(msg.Template, msg.Data); err != nil {
		return err
	}
	log.Printf("[mail] smtp disabled, dropping to=%s subject=%q template=%s", msg.To, msg.Subject, msg.Template)
	return nil
}
