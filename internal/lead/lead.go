// Package lead turns a finished session into a lead submission and delivers
// it to the configured sinks: a webhook, the Postgres ledger and the results
// email. Delivery is best effort and never affects what the respondent sees.
package lead

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/management-diagnostic/internal/engine"
	"github.com/nyashahama/management-diagnostic/internal/quiz"
	"github.com/nyashahama/management-diagnostic/internal/scoring"
)

// CategoryScore is the per-category summary carried by a submission.
type CategoryScore struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Score float64       `json:"score"`
	Max   float64       `json:"max"`
	Level scoring.Level `json:"level"`
	Title string        `json:"title"`
}

// Submission is what every sink receives. The JSON form is the webhook
// payload; the first seven fields keep the names CRM automations expect.
type Submission struct {
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Company      string             `json:"company"`
	TeamSize     string             `json:"teamSize,omitempty"`
	Scores       map[string]float64 `json:"scores"`
	OverallScore float64            `json:"overallScore"`
	CompletedAt  time.Time          `json:"completedAt"`

	ID                uuid.UUID         `json:"id"`
	SessionID         uuid.UUID         `json:"sessionId"`
	Variant           quiz.Variant      `json:"variant"`
	OverallMax        float64           `json:"overallMax"`
	Categories        []CategoryScore   `json:"categories"`
	Weaknesses        []string          `json:"weaknesses"`
	BusinessInfo      map[string]string `json:"businessInfo,omitempty"`
	BusinessInfoScore *float64          `json:"businessInfoScore,omitempty"`
	CTAURL            string            `json:"ctaUrl,omitempty"`
}

// FromResults builds a submission from a session's results.
func FromResults(sessionID uuid.UUID, r engine.Results, completedAt time.Time) Submission {
	s := Submission{
		Name:              r.Lead.Name,
		Email:             r.Lead.Email,
		Company:           r.Lead.Company,
		TeamSize:          r.Intro[quiz.TeamSizeField],
		Scores:            maps.Clone(r.Scores),
		OverallScore:      r.OverallScore,
		CompletedAt:       completedAt.UTC(),
		ID:                uuid.New(),
		SessionID:         sessionID,
		Variant:           r.Variant,
		OverallMax:        r.OverallMax,
		Categories:        make([]CategoryScore, len(r.Categories)),
		Weaknesses:        make([]string, len(r.Weaknesses)),
		BusinessInfoScore: r.BusinessInfoScore,
		CTAURL:            r.CTAURL,
	}

	for i, c := range r.Categories {
		s.Categories[i] = CategoryScore{ID: c.ID, Name: c.Name, Score: c.Score, Max: c.Max, Level: c.Level, Title: c.Title}
	}
	for i, w := range r.Weaknesses {
		s.Weaknesses[i] = w.ID
	}

	for field, value := range r.Intro {
		if field == quiz.TeamSizeField {
			continue
		}
		if s.BusinessInfo == nil {
			s.BusinessInfo = make(map[string]string)
		}
		s.BusinessInfo[field] = value
	}
	return s
}

// categoryName resolves a category id to its display name.
func (s Submission) categoryName(id string) string {
	for _, c := range s.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}
