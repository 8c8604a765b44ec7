package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultResendURL = "https://api.resend.com/emails"

// resendClient is the concrete Sender backed by the Resend API.
type resendClient struct {
	apiKey     string
	fromAddr   string // e.g. "diagnostic@example.com"
	fromName   string // e.g. "Management Diagnostic"
	endpoint   string
	httpClient *http.Client
}

// Option tweaks a Resend client.
type Option func(*resendClient)

// WithEndpoint points the client at a different API URL. Used by tests.
func WithEndpoint(url string) Option {
	return func(c *resendClient) { c.endpoint = url }
}

// WithHTTPClient replaces the default 15s-timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *resendClient) { c.httpClient = hc }
}

// NewResendClient returns a Sender that delivers email via Resend.
func NewResendClient(apiKey, fromAddr, fromName string, opts ...Option) Sender {
	c := &resendClient{
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		endpoint: defaultResendURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name       string `json:"name"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// SendResults sends the respondent their diagnostic results.
func (c *resendClient) SendResults(ctx context.Context, p ResultsParams) error {
	if p.To == "" {
		return fmt.Errorf("email: no recipient")
	}
	subject := "Your Management Diagnostic Results"
	if p.Company != "" {
		subject = fmt.Sprintf("%s: Your Management Diagnostic Results", p.Company)
	}
	return c.send(ctx, p.To, subject, resultsHTML(p))
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) send(ctx context.Context, to, subject, body string) error {
	from := fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)

	reqBody := resendRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		HTML:    body,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("email: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("email: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return fmt.Errorf("email: Resend error %s: %s", parsed.Error.Name, parsed.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return nil
}

// ─── HTML TEMPLATES ───────────────────────────────────────────────────────────

func resultsHTML(p ResultsParams) string {
	greeting := "Hello"
	if p.Name != "" {
		greeting = fmt.Sprintf("Hello %s", html.EscapeString(p.Name))
	}

	var rows strings.Builder
	for _, l := range p.Categories {
		fmt.Fprintf(&rows, `
    <tr>
      <td style="padding: 6px 0;">%s</td>
      <td style="padding: 6px 0; text-align: right;">%s / %s</td>
      <td style="padding: 6px 0 6px 16px; color: #6b7280;">%s</td>
    </tr>`, html.EscapeString(l.Name), formatScore(l.Score), formatScore(l.Max), html.EscapeString(l.Title))
	}

	focus := "<p>No category stood out as a weakness. Keep doing what works.</p>"
	if len(p.Weaknesses) > 0 {
		names := make([]string, len(p.Weaknesses))
		for i, w := range p.Weaknesses {
			names[i] = "<strong>" + html.EscapeString(w) + "</strong>"
		}
		focus = fmt.Sprintf("<p>Your biggest opportunities: %s.</p>", strings.Join(names, " and "))
	}

	cta := ""
	if p.CTAURL != "" {
		cta = fmt.Sprintf(`
  <p style="margin: 32px 0;">
    <a href="%s"
       style="background: #0f172a; color: #ffffff; padding: 12px 24px;
              border-radius: 6px; text-decoration: none; font-weight: 600;">
      Book a Call
    </a>
  </p>`, html.EscapeString(p.CTAURL))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">Your Management Diagnostic Results</h2>
  <p>%s,</p>
  <p>Overall score: <strong>%s / %s</strong></p>
  <table style="width: 100%%; border-collapse: collapse;">%s
  </table>
  %s%s
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">
    Management Diagnostic · You received this because you completed the assessment
  </p>
</body>
</html>`, greeting, formatScore(p.OverallScore), formatScore(p.OverallMax), rows.String(), focus, cta)
}

// formatScore prints whole numbers without decimals and everything else with
// one decimal place.
func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
