package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/management-diagnostic/internal/db"
)

// ─── INPUT TYPES ─────────────────────────────────────────────────────────────

// RecordLeadParams is one completed diagnostic. ID is the submission id and
// doubles as the idempotency key.
type RecordLeadParams struct {
	ID                uuid.UUID
	SessionID         uuid.UUID
	Name              string
	Email             string
	Company           string
	TeamSize          string // empty when the quiz has no team-size field
	Variant           string
	OverallScore      float64
	OverallMax        float64
	Scores            map[string]float64
	BusinessInfo      map[string]string // may be nil
	BusinessInfoScore *float64
	CompletedAt       time.Time
}

// ─── ERRORS ──────────────────────────────────────────────────────────────────

// ErrLeadAlreadyRecorded is returned when a row with the same id exists. A
// retried delivery hits this and should be treated as success.
var ErrLeadAlreadyRecorded = errors.New("store: lead already recorded")

// ─── METHODS ─────────────────────────────────────────────────────────────────

// RecordLead inserts the lead unless a row with the same id is already
// there, in which case the existing row is returned with
// ErrLeadAlreadyRecorded.
func (s *Store) RecordLead(ctx context.Context, p RecordLeadParams) (db.Lead, error) {
	if p.ID == uuid.Nil {
		return db.Lead{}, errors.New("RecordLead: id is required")
	}

	scores, err := json.Marshal(p.Scores)
	if err != nil {
		return db.Lead{}, fmt.Errorf("RecordLead: marshal scores: %w", err)
	}

	info := pqtype.NullRawMessage{}
	if len(p.BusinessInfo) > 0 {
		raw, err := json.Marshal(p.BusinessInfo)
		if err != nil {
			return db.Lead{}, fmt.Errorf("RecordLead: marshal business info: %w", err)
		}
		info = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	var infoScore sql.NullFloat64
	if p.BusinessInfoScore != nil {
		infoScore = sql.NullFloat64{Float64: *p.BusinessInfoScore, Valid: true}
	}

	var lead db.Lead
	err = s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		existing, err := q.GetLeadByID(ctx, p.ID)
		switch {
		case err == nil:
			lead = existing
			return ErrLeadAlreadyRecorded
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("RecordLead: get lead: %w", err)
		}

		lead, err = q.CreateLead(ctx, db.CreateLeadParams{
			ID:                p.ID,
			SessionID:         p.SessionID,
			Name:              p.Name,
			Email:             p.Email,
			Company:           p.Company,
			TeamSize:          sql.NullString{String: p.TeamSize, Valid: p.TeamSize != ""},
			Variant:           p.Variant,
			OverallScore:      p.OverallScore,
			OverallMax:        p.OverallMax,
			Scores:            scores,
			BusinessInfo:      info,
			BusinessInfoScore: infoScore,
			CompletedAt:       p.CompletedAt.UTC(),
		})
		if err != nil {
			return fmt.Errorf("RecordLead: create lead: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLeadAlreadyRecorded) {
			return lead, err
		}
		return db.Lead{}, err
	}
	return lead, nil
}
