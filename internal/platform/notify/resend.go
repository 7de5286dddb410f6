package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const resendBaseURL = "https://api.resend.com"

// ErrEmailDeliveryFailed wraps gateway-side failures to send an email.
var ErrEmailDeliveryFailed = errors.New("notify: email delivery failed")

// Email is one outbound transactional email.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// ResendConfig carries the Resend REST credentials.
type ResendConfig struct {
	APIKey     string
	From       string
	BaseURL    string
	HTTPClient *http.Client
}

// ResendSender posts transactional email through the Resend API.
type ResendSender struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewResendSender validates the credentials and returns a ready sender.
func NewResendSender(cfg ResendConfig) (*ResendSender, error) {
	key := strings.TrimSpace(cfg.APIKey)
	from := strings.TrimSpace(cfg.From)
	if key == "" || from == "" {
		return nil, errors.New("notify: resend api key and from address are required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = resendBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &ResendSender{
		apiKey:  key,
		from:    from,
		baseURL: base,
		client:  client,
	}, nil
}

type resendSendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendSendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send delivers one email and returns the gateway message id.
func (s *ResendSender) Send(ctx context.Context, email Email) (string, error) {
	to := strings.TrimSpace(email.To)
	if to == "" {
		return "", fmt.Errorf("%w: recipient address is required", ErrEmailDeliveryFailed)
	}
	if strings.TrimSpace(email.Subject) == "" {
		return "", fmt.Errorf("%w: subject is required", ErrEmailDeliveryFailed)
	}

	body, err := json.Marshal(resendSendRequest{
		From:    s.from,
		To:      []string{to},
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var payload resendSendResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: decoding response: %v", ErrEmailDeliveryFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := payload.Message
		if detail == "" {
			detail = resp.Status
		}
		return "", fmt.Errorf("%w: %s", ErrEmailDeliveryFailed, detail)
	}
	if payload.ID == "" {
		return "", fmt.Errorf("%w: gateway response missing message id", ErrEmailDeliveryFailed)
	}
	return payload.ID, nil
}
