package scoring

import "github.com/nyashahama/management-diagnostic/internal/quiz"

// ─── THRESHOLDS ───────────────────────────────────────────────────────────────

// Weighted quizzes score each category as a mean on the option scale (0–4).
const (
	weightedWeakBelow  = 3.0 // score < 3  → weakness
	weightedRedBelow   = 2.0 // score < 2  → red
	weightedAmberBelow = 3.0 // score < 3  → amber
)

// Binary quizzes score each category as a raw sum of 10/0 answers.
const (
	binaryWeakAtOrBelow  = 20.0 // score <= 20 → weakness
	binaryRedAtOrBelow   = 20.0 // score <= 20 → red
	binaryAmberAtOrBelow = 40.0 // score <= 40 → amber
)

// ─── STRATEGY ─────────────────────────────────────────────────────────────────

// Variant captures everything that differs between the two answer formats.
// The engine and the result builders only ever talk to this interface.
type Variant interface {
	// Kind reports which answer format this strategy implements.
	Kind() quiz.Variant

	// ScoreOption maps a chosen option to the score recorded for it.
	ScoreOption(opt quiz.Option) float64

	// AggregateCategory folds the scores of a category's answered questions
	// into the category score. answered may be empty.
	AggregateCategory(answered []float64) float64

	// AggregateOverall folds the category scores into the overall score.
	AggregateOverall(categoryScores []float64) float64

	// CategoryMax is the ceiling of a single category score. It is also the
	// radar chart scale.
	CategoryMax() float64

	// OverallMax is the ceiling of the overall score.
	OverallMax(categoryCount int) float64

	// IsWeak reports whether a category score qualifies as a weakness.
	IsWeak(score float64) bool

	// DisplayBucket picks the red/amber/green badge for a category score.
	// It is independent of the low/mid/high tiers from the document.
	DisplayBucket(score float64) Bucket
}

// For returns the strategy matching the quiz variant.
func For(q *quiz.Quiz) Variant {
	if q.Variant() == quiz.VariantBinary {
		return Binary{MaxPerCategory: q.CategoryMax()}
	}
	return Weighted{ScaleMax: q.ScaleMax()}
}

// Weighted averages option scores on a small ordinal scale.
type Weighted struct {
	ScaleMax float64
}

func (Weighted) Kind() quiz.Variant { return quiz.VariantWeighted }

func (Weighted) ScoreOption(opt quiz.Option) float64 { return opt.Score }

func (Weighted) AggregateCategory(answered []float64) float64 { return mean(answered) }

func (Weighted) AggregateOverall(categoryScores []float64) float64 { return mean(categoryScores) }

func (w Weighted) CategoryMax() float64 { return w.ScaleMax }

func (w Weighted) OverallMax(int) float64 { return w.ScaleMax }

func (Weighted) IsWeak(score float64) bool { return score < weightedWeakBelow }

func (Weighted) DisplayBucket(score float64) Bucket {
	switch {
	case score < weightedRedBelow:
		return BucketRed
	case score < weightedAmberBelow:
		return BucketAmber
	default:
		return BucketGreen
	}
}

// Binary sums fixed Yes/No scores.
type Binary struct {
	MaxPerCategory float64
}

func (Binary) Kind() quiz.Variant { return quiz.VariantBinary }

func (Binary) ScoreOption(opt quiz.Option) float64 {
	if opt.Text == quiz.YesText {
		return quiz.YesScore
	}
	return quiz.NoScore
}

func (Binary) AggregateCategory(answered []float64) float64 { return sum(answered) }

func (Binary) AggregateOverall(categoryScores []float64) float64 { return sum(categoryScores) }

func (b Binary) CategoryMax() float64 { return b.MaxPerCategory }

func (b Binary) OverallMax(categoryCount int) float64 {
	return b.MaxPerCategory * float64(categoryCount)
}

func (Binary) IsWeak(score float64) bool { return score <= binaryWeakAtOrBelow }

func (Binary) DisplayBucket(score float64) Bucket {
	switch {
	case score <= binaryRedAtOrBelow:
		return BucketRed
	case score <= binaryAmberAtOrBelow:
		return BucketAmber
	default:
		return BucketGreen
	}
}

func sum(vs []float64) float64 {
	total := 0.0
	for _, v := range vs {
		total += v
	}
	return total
}

// mean returns 0 for an empty slice.
func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return sum(vs) / float64(len(vs))
}
