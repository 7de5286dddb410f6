package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	twilioBaseURL        = "https://api.twilio.com/2010-04-01"
	defaultClientTimeout = 10 * time.Second
)

// ErrSMSDeliveryFailed wraps gateway-side failures to send a text message.
var ErrSMSDeliveryFailed = errors.New("notify: sms delivery failed")

// TwilioConfig carries the Twilio REST credentials.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
	HTTPClient *http.Client
}

// TwilioSender posts messages to the Twilio Programmable Messaging API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

// NewTwilioSender validates the credentials and returns a ready sender.
func NewTwilioSender(cfg TwilioConfig) (*TwilioSender, error) {
	sid := strings.TrimSpace(cfg.AccountSID)
	token := strings.TrimSpace(cfg.AuthToken)
	from := strings.TrimSpace(cfg.FromNumber)
	if sid == "" || token == "" || from == "" {
		return nil, errors.New("notify: twilio account sid, auth token, and from number are required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = twilioBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &TwilioSender{
		accountSID: sid,
		authToken:  token,
		from:       from,
		baseURL:    base,
		client:     client,
	}, nil
}

type twilioMessageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	Message      string `json:"message"`
}

// SendSMS delivers one text message and returns the gateway message sid.
func (s *TwilioSender) SendSMS(ctx context.Context, to string, body string) (string, error) {
	recipient := strings.TrimSpace(to)
	if recipient == "" {
		return "", fmt.Errorf("%w: recipient phone number is required", ErrSMSDeliveryFailed)
	}
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("%w: message body is required", ErrSMSDeliveryFailed)
	}

	form := url.Values{}
	form.Set("To", recipient)
	form.Set("From", s.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSMSDeliveryFailed, err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSMSDeliveryFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var payload twilioMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: decoding response: %v", ErrSMSDeliveryFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := payload.Message
		if detail == "" {
			detail = payload.ErrorMessage
		}
		if detail == "" {
			detail = resp.Status
		}
		return "", fmt.Errorf("%w: %s", ErrSMSDeliveryFailed, detail)
	}
	if payload.ErrorCode != nil {
		return "", fmt.Errorf("%w: gateway error %d: %s", ErrSMSDeliveryFailed, *payload.ErrorCode, payload.ErrorMessage)
	}
	if payload.SID == "" {
		return "", fmt.Errorf("%w: gateway response missing message sid", ErrSMSDeliveryFailed)
	}
	return payload.SID, nil
}
