package skills

import (
	"context"
	"fmt"
	"net/smtp"
	"regexp"
	"strings"

	"github.com/samivoice/sami/internal/config"
	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// emailPattern captures "send an email to <name> saying <body>".
var emailPattern = regexp.MustCompile(`send an email to ([a-z ]+?) saying (.+)`)

// Email sends short dictated emails through SMTP to people in the
// contact book.
type Email struct {
	cfg      config.EmailConfig
	contacts Contacts
	log      *logger.Logger
	send     func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

var _ domain.Skill = (*Email)(nil)

// EmailOption configures the skill.
type EmailOption func(*Email)

// WithSendFunc replaces the SMTP sender, for tests.
func WithSendFunc(fn func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error) EmailOption {
	return func(e *Email) { e.send = fn }
}

// NewEmail creates the email skill.
func NewEmail(cfg config.EmailConfig, contacts Contacts, log *logger.Logger, opts ...EmailOption) *Email {
	e := &Email{
		cfg:      cfg,
		contacts: contacts,
		log:      log,
		send:     smtp.SendMail,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the skill in logs.
func (e *Email) Name() string { return "email" }

// Match claims dictated email requests.
func (e *Email) Match(utterance string) bool {
	return emailPattern.MatchString(utterance)
}

// Handle resolves the recipient and sends the message.
func (e *Email) Handle(ctx context.Context, utterance string) (string, error) {
	if !e.cfg.Enabled() {
		return "", domain.ErrSkillUnavailable
	}

	parts := emailPattern.FindStringSubmatch(utterance)
	if parts == nil {
		return "", fmt.Errorf("could not parse email request: %w", domain.ErrNotFound)
	}
	name := strings.TrimSpace(parts[1])
	body := strings.TrimSpace(parts[2])

	contact, ok := e.contacts.Find(name)
	if !ok || contact.Email == "" {
		return fmt.Sprintf("I'm sorry, Sir. I don't have an email address for %s.", name), nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Message from Sami\r\n\r\n%s\r\n",
		e.cfg.Address, contact.Email, body)
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPServer, e.cfg.SMTPPort)
	auth := smtp.PlainAuth("", e.cfg.Address, e.cfg.Password, e.cfg.SMTPServer)

	e.log.Info("email: sending to %s (%s)", name, contact.Email)
	if err := e.send(addr, auth, e.cfg.Address, []string{contact.Email}, []byte(msg)); err != nil {
		return "", fmt.Errorf("send to %s: %w", contact.Email, err)
	}

	return fmt.Sprintf("Your email to %s has been sent, Sir.", name), nil
}
