package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Message is a rendered transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPSender posts messages to a JSON email API that accepts {from,to,subject,html}
// with a bearer key.
type HTTPSender struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

// NewHTTPSender returns a sender that posts to an email delivery API.
func NewHTTPSender(endpoint, apiKey, from string) *HTTPSender {
	return &HTTPSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type apiPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers msg; any non-2xx response is an error.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("mail: recipient is required")
	}
	body, err := json.Marshal(apiPayload{From: s.from, To: []string{msg.To}, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return fmt.Errorf("mail: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mail: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail: provider returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender returns a sender that only logs messages.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the recipient and subject.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("email not sent: no provider configured",
		zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
