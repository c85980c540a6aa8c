package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pixgate/internal/config"
	"pixgate/internal/util"
)

const resendEndpoint = "https://api.resend.com/emails"

// Mailer sends transactional email through the Resend HTTP API. When no API
// key is configured sends become logged no-ops, which keeps local
// development working without credentials.
type Mailer struct {
	apiKey     string
	from       string
	endpoint   string
	httpClient *http.Client
}

func NewMailer(cfg *config.ResendConfig) *Mailer {
	return &Mailer{
		apiKey:   cfg.APIKey,
		from:     cfg.FromEmail,
		endpoint: resendEndpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendApprovalNotice tells a user their account was approved.
func (m *Mailer) SendApprovalNotice(ctx context.Context, to, name string) error {
	subject := "Your account has been approved"
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your account has been approved. You can now sign in and start accepting PIX payments.</p>", name)
	return m.send(ctx, to, subject, body)
}

// SendRejectionNotice tells a user their account was rejected.
func (m *Mailer) SendRejectionNotice(ctx context.Context, to, name string) error {
	subject := "Update on your account application"
	body := fmt.Sprintf("<p>Hi %s,</p><p>After review, we are unable to approve your account at this time.</p>", name)
	return m.send(ctx, to, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, html string) error {
	if m.apiKey == "" {
		util.Warn("Mail send skipped, no Resend API key configured",
			util.String("to", to),
			util.String("subject", subject))
		return nil
	}

	payload, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("resend returned %d: %s", res.StatusCode, string(raw))
	}

	util.Info("Mail sent",
		util.String("to", to),
		util.String("subject", subject))
	return nil
}
