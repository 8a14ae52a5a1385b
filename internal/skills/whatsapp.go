package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/samivoice/sami/internal/config"
	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// whatsappPattern captures "send a message to <name> saying <body>",
// with or without the word "whatsapp".
var whatsappPattern = regexp.MustCompile(`send a (?:whatsapp )?message to ([a-z ]+?) saying (.+)`)

const defaultGraphBase = "https://graph.facebook.com/v17.0"

// WhatsApp sends dictated messages through the WhatsApp Business
// Graph API to people in the contact book.
type WhatsApp struct {
	cfg      config.WhatsAppConfig
	contacts Contacts
	log      *logger.Logger
	http     *http.Client
	baseURL  string
}

var _ domain.Skill = (*WhatsApp)(nil)

// WhatsAppOption configures the skill.
type WhatsAppOption func(*WhatsApp)

// WithGraphBase overrides the Graph API endpoint, for tests.
func WithGraphBase(base string) WhatsAppOption {
	return func(w *WhatsApp) { w.baseURL = base }
}

// NewWhatsApp creates the whatsapp skill.
func NewWhatsApp(cfg config.WhatsAppConfig, contacts Contacts, log *logger.Logger, opts ...WhatsAppOption) *WhatsApp {
	w := &WhatsApp{
		cfg:      cfg,
		contacts: contacts,
		log:      log,
		http:     &http.Client{Timeout: 10 * time.Second},
		baseURL:  defaultGraphBase,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name identifies the skill in logs.
func (w *WhatsApp) Name() string { return "whatsapp" }

// Match claims dictated message requests.
func (w *WhatsApp) Match(utterance string) bool {
	return whatsappPattern.MatchString(utterance)
}

// Handle resolves the recipient's phone number and posts the message.
func (w *WhatsApp) Handle(ctx context.Context, utterance string) (string, error) {
	if !w.cfg.Enabled() {
		return "", domain.ErrSkillUnavailable
	}

	parts := whatsappPattern.FindStringSubmatch(utterance)
	if parts == nil {
		return "", fmt.Errorf("could not parse message request: %w", domain.ErrNotFound)
	}
	name := strings.TrimSpace(parts[1])
	body := strings.TrimSpace(parts[2])

	contact, ok := w.contacts.Find(name)
	if !ok || contact.Phone == "" {
		return fmt.Sprintf("I'm sorry, Sir. I don't have a phone number for %s.", name), nil
	}

	payload, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                contact.Phone,
		"text":              map[string]string{"body": body},
	})
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", w.baseURL, w.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.cfg.APIKey)

	w.log.Info("whatsapp: sending to %s", name)
	resp, err := w.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send to %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("graph api status %d: %s", resp.StatusCode, raw)
	}

	return fmt.Sprintf("Your message to %s has been sent, Sir.", name), nil
}
