// Package scoring turns recorded answers into category scores, an overall
// score, result tiers, weaknesses and display buckets. It is pure: it holds
// no state and depends only on the quiz configuration types, so it can be
// tested without an engine or a server.
package scoring

import (
	"slices"

	"github.com/nyashahama/management-diagnostic/internal/quiz"
)

// maxWeaknesses caps how many weak categories the results call out.
const maxWeaknesses = 2

// ─── TYPES ────────────────────────────────────────────────────────────────────

// Level is the qualitative tier a category score falls into. String values
// match the keys of the "results" block in the quiz document.
type Level string

const (
	LevelLow  Level = "low"
	LevelMid  Level = "mid"
	LevelHigh Level = "high"
)

// Bucket is the red/amber/green badge colour used on result cards.
type Bucket string

const (
	BucketRed   Bucket = "red"
	BucketAmber Bucket = "amber"
	BucketGreen Bucket = "green"
)

// Answer is the record kept for one flattened question. Answered=false is
// the "unanswered" sentinel; Score is meaningless in that case.
type Answer struct {
	CategoryID    string  `json:"categoryId"`
	QuestionIndex int     `json:"questionIndex"`
	Score         float64 `json:"score"`
	Answered      bool    `json:"answered"`
}

// CategoryResult is one category as shown on the results page.
type CategoryResult struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Score       float64  `json:"score"`
	Max         float64  `json:"max"`
	Level       Level    `json:"level"`
	Bucket      Bucket   `json:"bucket"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tips        []string `json:"tips"`
}

// Report is the full scoring output for a session.
type Report struct {
	Variant      quiz.Variant       `json:"variant"`
	Scores       map[string]float64 `json:"scores"`
	OverallScore float64            `json:"overallScore"`
	OverallMax   float64            `json:"overallMax"`
	// Categories is in document order.
	Categories []CategoryResult `json:"categories"`
	// Weaknesses is in ascending score order and may be empty.
	Weaknesses []CategoryResult `json:"weaknesses"`
}

// ─── CORE FUNCTIONS ───────────────────────────────────────────────────────────

// ComputeScores returns categoryID → score. Every category is present;
// categories without answered questions score 0 in both variants.
func ComputeScores(v Variant, categories []quiz.Category, answers []Answer) map[string]float64 {
	answered := make(map[string][]float64, len(categories))
	for _, a := range answers {
		if a.Answered {
			answered[a.CategoryID] = append(answered[a.CategoryID], a.Score)
		}
	}

	scores := make(map[string]float64, len(categories))
	for _, c := range categories {
		scores[c.ID] = v.AggregateCategory(answered[c.ID])
	}
	return scores
}

// OverallScore aggregates the category scores in document order.
func OverallScore(v Variant, categories []quiz.Category, scores map[string]float64) float64 {
	if len(categories) == 0 {
		return 0
	}
	ordered := make([]float64, len(categories))
	for i, c := range categories {
		ordered[i] = scores[c.ID]
	}
	return v.AggregateOverall(ordered)
}

// ResultLevel classifies a category score against the category's tiers.
// Boundaries belong to the lower tier: score <= low.max is low, otherwise
// score <= mid.max is mid, otherwise high.
func ResultLevel(c quiz.Category, score float64) Level {
	if score <= c.Results.Low.Max() {
		return LevelLow
	}
	if score <= c.Results.Mid.Max() {
		return LevelMid
	}
	return LevelHigh
}

// TierFor returns the copy configured for a level.
func TierFor(c quiz.Category, level Level) quiz.Tier {
	switch level {
	case LevelLow:
		return c.Results.Low
	case LevelMid:
		return c.Results.Mid
	default:
		return c.Results.High
	}
}

// CategoryCards builds one result per category in document order.
func CategoryCards(v Variant, categories []quiz.Category, scores map[string]float64) []CategoryResult {
	cards := make([]CategoryResult, 0, len(categories))
	for _, c := range categories {
		cards = append(cards, categoryResult(v, c, scores[c.ID]))
	}
	return cards
}

// Weaknesses returns up to two weak categories, lowest score first. Ties keep
// document order. An empty result is valid and means "no weaknesses".
func Weaknesses(v Variant, categories []quiz.Category, scores map[string]float64) []CategoryResult {
	sorted := CategoryCards(v, categories, scores)
	slices.SortStableFunc(sorted, func(a, b CategoryResult) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		default:
			return 0
		}
	})

	out := make([]CategoryResult, 0, maxWeaknesses)
	for _, r := range sorted {
		if len(out) == maxWeaknesses {
			break
		}
		if v.IsWeak(r.Score) {
			out = append(out, r)
		}
	}
	return out
}

// Evaluate runs the whole pipeline for a set of answers.
func Evaluate(v Variant, categories []quiz.Category, answers []Answer) Report {
	scores := ComputeScores(v, categories, answers)
	return Report{
		Variant:      v.Kind(),
		Scores:       scores,
		OverallScore: OverallScore(v, categories, scores),
		OverallMax:   v.OverallMax(len(categories)),
		Categories:   CategoryCards(v, categories, scores),
		Weaknesses:   Weaknesses(v, categories, scores),
	}
}

// BusinessInfoScore averages the scores of the selected business-info options
// that carry one. ok is false when none of them do.
func BusinessInfoScore(selected []quiz.InfoOption) (score float64, ok bool) {
	var scored []float64
	for _, o := range selected {
		if o.Score != nil {
			scored = append(scored, *o.Score)
		}
	}
	if len(scored) == 0 {
		return 0, false
	}
	return mean(scored), true
}

func categoryResult(v Variant, c quiz.Category, score float64) CategoryResult {
	level := ResultLevel(c, score)
	tier := TierFor(c, level)
	tips := slices.Clone(tier.Tips)
	if tips == nil {
		tips = []string{}
	}
	return CategoryResult{
		ID:          c.ID,
		Name:        c.Name,
		Icon:        c.Icon,
		Score:       score,
		Max:         v.CategoryMax(),
		Level:       level,
		Bucket:      v.DisplayBucket(score),
		Title:       tier.Title,
		Description: tier.Description,
		Tips:        tips,
	}
}
