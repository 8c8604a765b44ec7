package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nyashahama/management-diagnostic/internal/db"
	"github.com/nyashahama/management-diagnostic/internal/email"
	"github.com/nyashahama/management-diagnostic/internal/store"
)

// Sink is one delivery target for submissions.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, s Submission) error
}

// ─── WEBHOOK ──────────────────────────────────────────────────────────────────

// WebhookSink POSTs the submission as JSON, e.g. to a CRM inbound webhook.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink returns a sink posting to url. client may be nil.
func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookSink{url: url, client: client}
}

func (w *WebhookSink) Name() string { return "webhook" }

func (w *WebhookSink) Deliver(ctx context.Context, s Submission) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: http request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// ─── LEDGER ───────────────────────────────────────────────────────────────────

// Recorder is the store method the ledger sink needs.
type Recorder interface {
	RecordLead(ctx context.Context, p store.RecordLeadParams) (db.Lead, error)
}

// LedgerSink writes the submission to the leads table.
type LedgerSink struct {
	rec Recorder
}

func NewLedgerSink(rec Recorder) *LedgerSink { return &LedgerSink{rec: rec} }

func (l *LedgerSink) Name() string { return "ledger" }

// Deliver records the lead. A retried delivery of a row that already landed
// counts as success.
func (l *LedgerSink) Deliver(ctx context.Context, s Submission) error {
	_, err := l.rec.RecordLead(ctx, store.RecordLeadParams{
		ID:                s.ID,
		SessionID:         s.SessionID,
		Name:              s.Name,
		Email:             s.Email,
		Company:           s.Company,
		TeamSize:          s.TeamSize,
		Variant:           string(s.Variant),
		OverallScore:      s.OverallScore,
		OverallMax:        s.OverallMax,
		Scores:            s.Scores,
		BusinessInfo:      s.BusinessInfo,
		BusinessInfoScore: s.BusinessInfoScore,
		CompletedAt:       s.CompletedAt,
	})
	if err != nil && !errors.Is(err, store.ErrLeadAlreadyRecorded) {
		return fmt.Errorf("ledger: %w", err)
	}
	return nil
}

// ─── EMAIL ────────────────────────────────────────────────────────────────────

// EmailSink sends the respondent their results.
type EmailSink struct {
	sender email.Sender
}

func NewEmailSink(sender email.Sender) *EmailSink { return &EmailSink{sender: sender} }

func (e *EmailSink) Name() string { return "email" }

func (e *EmailSink) Deliver(ctx context.Context, s Submission) error {
	lines := make([]email.ResultLine, len(s.Categories))
	for i, c := range s.Categories {
		lines[i] = email.ResultLine{Name: c.Name, Score: c.Score, Max: c.Max, Title: c.Title}
	}
	weak := make([]string, len(s.Weaknesses))
	for i, id := range s.Weaknesses {
		weak[i] = s.categoryName(id)
	}

	return e.sender.SendResults(ctx, email.ResultsParams{
		To:           s.Email,
		Name:         s.Name,
		Company:      s.Company,
		OverallScore: s.OverallScore,
		OverallMax:   s.OverallMax,
		Categories:   lines,
		Weaknesses:   weak,
		CTAURL:       s.CTAURL,
	})
}
