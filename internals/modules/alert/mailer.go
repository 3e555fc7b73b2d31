package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"upmon/config"

	"github.com/rs/zerolog"
)

// Message is one outbound alert mail.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

type mailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// Mailer talks to a Resend-compatible mail API. Sending is best effort: the
// downtime is already recorded in history whether or not the mail goes out.
type Mailer struct {
	client     *http.Client
	apiURL     string
	apiKey     string
	from       string
	batchSize  int
	batchPause time.Duration
	logger     *zerolog.Logger
}

func NewMailer(cfg *config.MailConfig, client *http.Client, logger *zerolog.Logger) *Mailer {
	return &Mailer{
		client:     client,
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		batchSize:  cfg.BatchSize,
		batchPause: cfg.BatchPause,
		logger:     logger,
	}
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(mailRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("mail api returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}

// SendBatch sends in small groups with a pause in between so the provider's
// rate limit is respected. Failures are logged and skipped, never retried.
func (m *Mailer) SendBatch(ctx context.Context, msgs []Message) {
	for start := 0; start < len(msgs); start += m.batchSize {
		end := min(start+m.batchSize, len(msgs))

		for _, msg := range msgs[start:end] {
			if err := m.Send(ctx, msg); err != nil {
				m.logger.Error().Err(err).Str("to", msg.To).Msg("failed to send alert mail")
				continue
			}
			m.logger.Info().Str("to", msg.To).Msg("alert mail sent")
		}

		if end < len(msgs) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.batchPause):
			}
		}
	}
}
