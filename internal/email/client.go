// Package email defines the interface for transactional email delivery and
// provides a Resend-backed implementation.
package email

import "context"

// ResultLine is one category row in the results email.
type ResultLine struct {
	Name  string
	Score float64
	Max   float64
	Title string // tier title, e.g. "Developing"
}

// ResultsParams holds the data for the "your diagnostic results" email.
type ResultsParams struct {
	To           string
	Name         string
	Company      string
	OverallScore float64
	OverallMax   float64
	Categories   []ResultLine // document order
	Weaknesses   []string     // category names, weakest first; may be empty
	CTAURL       string
}

// Sender is the interface the lead pipeline uses to send email. Tests inject
// a stub that records calls without hitting the network.
type Sender interface {
	// SendResults sends the respondent a copy of their scores.
	SendResults(ctx context.Context, p ResultsParams) error
}
