// Package mail delivers the signup emails over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/infra/config"
	"github.com/phamyourfam/blissbite/internal/infra/logger"
)

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPMailer renders the transactional templates and sends them through go-mail.
type SMTPMailer struct {
	client   sender
	from     string
	fromName string
	logger   *zap.Logger
}

// NewSMTPMailer builds an SMTP client from cfg. No connection is opened until the first send.
func NewSMTPMailer(cfg config.EmailSettings, log *zap.Logger) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTimeout(cfg.Timeout),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUser),
			gomail.WithPassword(cfg.SMTPPass),
		)
	}

	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return newSMTPMailer(client, cfg, log), nil
}

func newSMTPMailer(client sender, cfg config.EmailSettings, log *zap.Logger) *SMTPMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &SMTPMailer{client: client, from: cfg.FromAddress, fromName: cfg.FromName, logger: log}
}

// SendVerificationCode emails the six-character signup code.
func (m *SMTPMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	return m.send(ctx, to, "Your BlissBite verification code", verificationCodeTemplate, map[string]string{"Code": code})
}

// SendMagicLink emails the link that completes signup.
func (m *SMTPMailer) SendMagicLink(ctx context.Context, to, link string) error {
	return m.send(ctx, to, "Complete your BlissBite signup", magicLinkTemplate, map[string]string{"Link": link})
}

// SendWelcome greets a freshly activated account.
func (m *SMTPMailer) SendWelcome(ctx context.Context, to, name string) error {
	return m.send(ctx, to, "Welcome to BlissBite", welcomeTemplate, map[string]string{"Name": name})
}

func (m *SMTPMailer) send(ctx context.Context, to, subject string, tpl template, data map[string]string) error {
	msg, err := m.compose(to, subject, tpl, data)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send %q: %w", subject, err)
	}

	logger.FromContext(ctx, m.logger).Info("email sent",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("subject", subject),
	)
	return nil
}

func (m *SMTPMailer) compose(to, subject string, tpl template, data map[string]string) (*gomail.Msg, error) {
	text, html, err := tpl.render(data)
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, text)
	msg.AddAlternativeString(gomail.TypeTextHTML, html)
	return msg, nil
}

// LoggingMailer logs instead of sending. Used when email is disabled.
type LoggingMailer struct {
	logger *zap.Logger
}

// NewLoggingMailer constructs a LoggingMailer.
func NewLoggingMailer(log *zap.Logger) *LoggingMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingMailer{logger: log}
}

// SendVerificationCode logs the code so local signups can proceed.
func (m *LoggingMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	logger.FromContext(ctx, m.logger).Info("verification code (email disabled)",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("code", code),
	)
	return nil
}

// SendMagicLink logs the link.
func (m *LoggingMailer) SendMagicLink(ctx context.Context, to, link string) error {
	logger.FromContext(ctx, m.logger).Info("magic link (email disabled)",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("link", link),
	)
	return nil
}

// SendWelcome logs the welcome.
func (m *LoggingMailer) SendWelcome(ctx context.Context, to, _ string) error {
	logger.FromContext(ctx, m.logger).Info("welcome email (email disabled)", zap.String("to", logger.MaskEmail(to)))
	return nil
}

type template struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

func (t template) render(data map[string]string) (string, string, error) {
	var text, html bytes.Buffer
	if err := t.text.Execute(&text, data); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	return text.String(), html.String(), nil
}

var (
	_ port.Mailer = (*SMTPMailer)(nil)
	_ port.Mailer = (*LoggingMailer)(nil)
)
