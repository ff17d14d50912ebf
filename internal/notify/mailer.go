// Package notify delivers transactional email through the Mailjet send API.
// Delivery is fire-and-forget: callers log a failure and continue, a
// notification must never fail the state transition it announces.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"commerce-service/internal/util"

	"go.uber.org/zap"
)

const sendEndpoint = "https://api.mailjet.com/v3.1/send"

// Mailer sends email via Mailjet. With empty API keys it runs in log-only
// mode, which keeps local development free of a mail account.
type Mailer struct {
	apiKey      string
	apiSecret   string
	senderEmail string
	senderName  string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewMailer creates a Mailjet mailer
func NewMailer(apiKey, apiSecret, senderEmail, senderName string) *Mailer {
	return &Mailer{
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		senderEmail: senderEmail,
		senderName:  senderName,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      util.GetLogger(),
	}
}

type mailjetRecipient struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

type mailjetMessage struct {
	From     mailjetRecipient   `json:"From"`
	To       []mailjetRecipient `json:"To"`
	Subject  string             `json:"Subject"`
	HTMLPart string             `json:"HTMLPart"`
}

type mailjetPayload struct {
	Messages []mailjetMessage `json:"Messages"`
}

// Send delivers one email. Errors are returned for the caller to log; they
// carry no state to roll back.
func (m *Mailer) Send(ctx context.Context, toEmail, toName, subject, htmlBody string) error {
	if m.apiKey == "" || m.apiSecret == "" {
		m.logger.Info("Mail delivery disabled, logging instead",
			zap.String("to", toEmail),
			zap.String("subject", subject))
		return nil
	}

	payload := mailjetPayload{
		Messages: []mailjetMessage{{
			From:     mailjetRecipient{Email: m.senderEmail, Name: m.senderName},
			To:       []mailjetRecipient{{Email: toEmail, Name: toName}},
			Subject:  subject,
			HTMLPart: htmlBody,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(m.apiKey, m.apiSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail send rejected: %s", resp.Status)
	}

	return nil
}
