// Package sendgrid is a thin typed adapter over the SendGrid v3 mail API,
// used to deliver verification codes.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/forkfeed/forkfeed/pkg/observability"
)

const defaultSendURL = "https://api.sendgrid.com/v3/mail/send"

// Config holds SendGrid settings
type Config struct {
	APIKey    string        `mapstructure:"api_key"`
	FromEmail string        `mapstructure:"from_email"`
	FromName  string        `mapstructure:"from_name"`
	SendURL   string        `mapstructure:"send_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Mailer sends transactional mail
type Mailer interface {
	SendVerificationCode(ctx context.Context, toEmail string, code int) error
}

// Client implements Mailer against the SendGrid REST API
type Client struct {
	config     Config
	httpClient *http.Client
	logger     observability.Logger
}

// NewClient creates a SendGrid client
func NewClient(config Config, logger observability.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("SendGrid API key is required")
	}
	if config.FromEmail == "" {
		return nil, errors.New("SendGrid sender address is required")
	}
	if config.SendURL == "" {
		config.SendURL = defaultSendURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type personalization struct {
	To []mailAddress `json:"to"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             mailAddress       `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

// SendVerificationCode emails a 6-digit code to the recipient
func (c *Client) SendVerificationCode(ctx context.Context, toEmail string, code int) error {
	payload := sendRequest{
		Personalizations: []personalization{{To: []mailAddress{{Email: toEmail}}}},
		From:             mailAddress{Email: c.config.FromEmail, Name: c.config.FromName},
		Subject:          "Your verification code",
		Content: []mailContent{{
			Type: "text/html",
			Value: fmt.Sprintf(
				"<p>Your verification code is:</p><h2>%06d</h2><p>It expires in 15 minutes.</p>",
				code),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.SendURL,
		bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Warn("Mail delivery rejected", map[string]interface{}{
			"status": resp.StatusCode,
			"detail": string(detail),
		})
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	c.logger.Debug("Verification mail accepted", map[string]interface{}{
		"to": toEmail,
	})
	return nil
}
