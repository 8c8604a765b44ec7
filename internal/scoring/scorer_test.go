package scoring_test

import (
	"testing"

	"github.com/nyashahama/management-diagnostic/internal/quiz"
	"github.com/nyashahama/management-diagnostic/internal/scoring"
)

func category(id string, low, mid, high [2]float64) quiz.Category {
	return quiz.Category{
		ID:   id,
		Name: "Category " + id,
		Icon: "icon-" + id,
		Results: quiz.Tiers{
			Low:  quiz.Tier{Range: low, Title: id + "-low", Description: "low copy", Tips: []string{"tip"}},
			Mid:  quiz.Tier{Range: mid, Title: id + "-mid", Description: "mid copy"},
			High: quiz.Tier{Range: high, Title: id + "-high", Description: "high copy"},
		},
	}
}

func weightedCategory(id string) quiz.Category {
	return category(id, [2]float64{0, 1.9}, [2]float64{2, 2.9}, [2]float64{3, 4})
}

func binaryCategory(id string) quiz.Category {
	return category(id, [2]float64{0, 20}, [2]float64{21, 40}, [2]float64{41, 50})
}

func answered(cat string, scores ...float64) []scoring.Answer {
	out := make([]scoring.Answer, len(scores))
	for i, s := range scores {
		out[i] = scoring.Answer{CategoryID: cat, QuestionIndex: i, Score: s, Answered: true}
	}
	return out
}

// ─── ComputeScores ────────────────────────────────────────────────────────────

func TestComputeScores_WeightedMean(t *testing.T) {
	v := scoring.Weighted{ScaleMax: 4}
	cats := []quiz.Category{weightedCategory("a")}

	got := scoring.ComputeScores(v, cats, answered("a", 4, 2, 0))
	if got["a"] != 2 {
		t.Errorf("score = %v, want 2", got["a"])
	}
}

func TestComputeScores_BinarySum(t *testing.T) {
	v := scoring.Binary{MaxPerCategory: 50}
	cats := []quiz.Category{binaryCategory("a")}

	got := scoring.ComputeScores(v, cats, answered("a", 10, 0, 10))
	if got["a"] != 20 {
		t.Errorf("score = %v, want 20", got["a"])
	}
}

func TestComputeScores_UnansweredIgnored(t *testing.T) {
	v := scoring.Weighted{ScaleMax: 4}
	cats := []quiz.Category{weightedCategory("a"), weightedCategory("b")}

	answers := []scoring.Answer{
		{CategoryID: "a", QuestionIndex: 0, Score: 3, Answered: true},
		{CategoryID: "a", QuestionIndex: 1, Score: 99, Answered: false},
		{CategoryID: "b", QuestionIndex: 0, Answered: false},
	}
	got := scoring.ComputeScores(v, cats, answers)

	if got["a"] != 3 {
		t.Errorf("a = %v, want 3 (unanswered entry must not count)", got["a"])
	}
	b, ok := got["b"]
	if !ok {
		t.Fatal("category b missing from scores")
	}
	if b != 0 {
		t.Errorf("b = %v, want 0", b)
	}
}

func TestComputeScores_NoAnswersIsZeroInBothVariants(t *testing.T) {
	variants := map[string]scoring.Variant{
		"weighted": scoring.Weighted{ScaleMax: 4},
		"binary":   scoring.Binary{MaxPerCategory: 50},
	}
	for name, v := range variants {
		t.Run(name, func(t *testing.T) {
			cats := []quiz.Category{weightedCategory("a")}
			got := scoring.ComputeScores(v, cats, nil)
			if got["a"] != 0 {
				t.Errorf("score = %v, want 0", got["a"])
			}
			if o := scoring.OverallScore(v, cats, got); o != 0 {
				t.Errorf("overall = %v, want 0", o)
			}
		})
	}
}

// ─── OverallScore ─────────────────────────────────────────────────────────────

func TestOverallScore(t *testing.T) {
	cats := []quiz.Category{weightedCategory("a"), weightedCategory("b")}
	scores := map[string]float64{"a": 3, "b": 2}

	if got := scoring.OverallScore(scoring.Weighted{ScaleMax: 4}, cats, scores); got != 2.5 {
		t.Errorf("weighted overall = %v, want 2.5", got)
	}
	if got := scoring.OverallScore(scoring.Binary{MaxPerCategory: 50}, cats, scores); got != 5 {
		t.Errorf("binary overall = %v, want 5", got)
	}
	if got := scoring.OverallScore(scoring.Weighted{ScaleMax: 4}, nil, scores); got != 0 {
		t.Errorf("overall with no categories = %v, want 0", got)
	}
}

// ─── ResultLevel ──────────────────────────────────────────────────────────────

func TestResultLevel_Boundaries(t *testing.T) {
	c := category("a", [2]float64{0, 1}, [2]float64{2, 3}, [2]float64{3.5, 4})

	tests := []struct {
		score float64
		want  scoring.Level
	}{
		{0, scoring.LevelLow},
		{1, scoring.LevelLow},
		{1.5, scoring.LevelMid},
		{2, scoring.LevelMid},
		{3, scoring.LevelMid},
		{3.2, scoring.LevelHigh},
		{4, scoring.LevelHigh},
	}
	for _, tt := range tests {
		if got := scoring.ResultLevel(c, tt.score); got != tt.want {
			t.Errorf("ResultLevel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestResultLevel_TouchingTiersFromDocument(t *testing.T) {
	q, err := quiz.Parse([]byte(`{
		"categories": [{
			"id": "a", "name": "A", "icon": "x",
			"questions": [{"text": "q", "options": [{"text": "no", "score": 0}, {"text": "yes", "score": 4}]}],
			"results": {
				"low":  {"range": [0, 2], "title": "L", "description": "l"},
				"mid":  {"range": [2, 3], "title": "M", "description": "m"},
				"high": {"range": [3, 4], "title": "H", "description": "h"}
			}
		}],
		"config": {"ctaUrl": "https://example.com"}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c := q.Categories()[0]

	for score, want := range map[float64]scoring.Level{
		2:   scoring.LevelLow,
		2.5: scoring.LevelMid,
		3:   scoring.LevelMid,
		3.1: scoring.LevelHigh,
	} {
		if got := scoring.ResultLevel(c, score); got != want {
			t.Errorf("ResultLevel(%v) = %q, want %q", score, got, want)
		}
	}
}

func TestTierFor(t *testing.T) {
	c := weightedCategory("a")
	for _, level := range []scoring.Level{scoring.LevelLow, scoring.LevelMid, scoring.LevelHigh} {
		if got := scoring.TierFor(c, level).Title; got != "a-"+string(level) {
			t.Errorf("TierFor(%q).Title = %q", level, got)
		}
	}
}

// ─── Buckets and weaknesses ───────────────────────────────────────────────────

func TestDisplayBucket(t *testing.T) {
	w := scoring.Weighted{ScaleMax: 4}
	b := scoring.Binary{MaxPerCategory: 50}

	tests := []struct {
		name  string
		v     scoring.Variant
		score float64
		want  scoring.Bucket
	}{
		{"weighted 0", w, 0, scoring.BucketRed},
		{"weighted 1.99", w, 1.99, scoring.BucketRed},
		{"weighted 2", w, 2, scoring.BucketAmber},
		{"weighted 2.99", w, 2.99, scoring.BucketAmber},
		{"weighted 3", w, 3, scoring.BucketGreen},
		{"binary 20", b, 20, scoring.BucketRed},
		{"binary 30", b, 30, scoring.BucketAmber},
		{"binary 40", b, 40, scoring.BucketAmber},
		{"binary 50", b, 50, scoring.BucketGreen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.DisplayBucket(tt.score); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWeaknesses_LowestTwoBelowThreshold(t *testing.T) {
	v := scoring.Weighted{ScaleMax: 4}
	cats := []quiz.Category{
		weightedCategory("a"), weightedCategory("b"), weightedCategory("c"), weightedCategory("d"),
	}
	scores := map[string]float64{"a": 2.5, "b": 1, "c": 3.5, "d": 2}

	got := scoring.Weaknesses(v, cats, scores)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "d" {
		t.Errorf("order = [%s %s], want [b d]", got[0].ID, got[1].ID)
	}
}

func TestWeaknesses_TiesKeepDocumentOrder(t *testing.T) {
	v := scoring.Weighted{ScaleMax: 4}
	cats := []quiz.Category{weightedCategory("x"), weightedCategory("y"), weightedCategory("z")}
	scores := map[string]float64{"x": 1, "y": 1, "z": 1}

	got := scoring.Weaknesses(v, cats, scores)
	if len(got) != 2 || got[0].ID != "x" || got[1].ID != "y" {
		t.Errorf("got %+v, want x then y", got)
	}
}

func TestWeaknesses_NoneIsEmptyNotNil(t *testing.T) {
	v := scoring.Weighted{ScaleMax: 4}
	cats := []quiz.Category{weightedCategory("a")}

	got := scoring.Weaknesses(v, cats, map[string]float64{"a": 3})
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}

func TestWeaknesses_BinaryThresholdInclusive(t *testing.T) {
	v := scoring.Binary{MaxPerCategory: 50}
	cats := []quiz.Category{binaryCategory("a"), binaryCategory("b")}

	got := scoring.Weaknesses(v, cats, map[string]float64{"a": 20, "b": 30})
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("got %+v, want only a", got)
	}
}

// ─── CategoryCards / Evaluate ─────────────────────────────────────────────────

func TestCategoryCards_DocumentOrderAndCopy(t *testing.T) {
	v := scoring.Weighted{ScaleMax: 4}
	cats := []quiz.Category{weightedCategory("z"), weightedCategory("a")}
	scores := map[string]float64{"z": 3.5, "a": 1}

	cards := scoring.CategoryCards(v, cats, scores)
	if len(cards) != 2 || cards[0].ID != "z" || cards[1].ID != "a" {
		t.Fatalf("cards not in document order: %+v", cards)
	}

	z := cards[0]
	if z.Level != scoring.LevelHigh || z.Title != "z-high" || z.Bucket != scoring.BucketGreen {
		t.Errorf("z card = %+v", z)
	}
	if z.Max != 4 || z.Icon != "icon-z" {
		t.Errorf("z card max/icon = %v/%q", z.Max, z.Icon)
	}
	if z.Tips == nil {
		t.Error("tips must be an empty slice, not nil")
	}

	a := cards[1]
	if a.Level != scoring.LevelLow || a.Bucket != scoring.BucketRed || len(a.Tips) != 1 {
		t.Errorf("a card = %+v", a)
	}

	// Mutating a card must not leak into the category tiers.
	a.Tips[0] = "changed"
	if cats[1].Results.Low.Tips[0] != "tip" {
		t.Error("card tips alias the category tiers")
	}
}

func TestEvaluate(t *testing.T) {
	v := scoring.Weighted{ScaleMax: 4}
	cats := []quiz.Category{weightedCategory("a"), weightedCategory("b")}
	answers := append(answered("a", 4, 2), answered("b", 3, 3)...)

	r := scoring.Evaluate(v, cats, answers)
	if r.Variant != quiz.VariantWeighted {
		t.Errorf("variant = %q", r.Variant)
	}
	if r.Scores["a"] != 3 || r.Scores["b"] != 3 {
		t.Errorf("scores = %v", r.Scores)
	}
	if r.OverallScore != 3 || r.OverallMax != 4 {
		t.Errorf("overall = %v / %v, want 3 / 4", r.OverallScore, r.OverallMax)
	}
	if len(r.Weaknesses) != 0 {
		t.Errorf("weaknesses = %+v, want none", r.Weaknesses)
	}
}

func TestBinaryOverallMax(t *testing.T) {
	v := scoring.Binary{MaxPerCategory: 50}
	if got := v.OverallMax(3); got != 150 {
		t.Errorf("OverallMax(3) = %v, want 150", got)
	}
	if got := v.ScoreOption(quiz.Option{Text: quiz.YesText}); got != quiz.YesScore {
		t.Errorf("Yes scores %v", got)
	}
	if got := v.ScoreOption(quiz.Option{Text: quiz.NoText, Score: 7}); got != quiz.NoScore {
		t.Errorf("No scores %v", got)
	}
}

// ─── BusinessInfoScore ────────────────────────────────────────────────────────

func TestBusinessInfoScore(t *testing.T) {
	one, three := 1.0, 3.0

	score, ok := scoring.BusinessInfoScore([]quiz.InfoOption{
		{Text: "a", Score: &one}, {Text: "b"}, {Text: "c", Score: &three},
	})
	if !ok || score != 2 {
		t.Errorf("got %v, %v; want 2, true", score, ok)
	}

	if _, ok := scoring.BusinessInfoScore([]quiz.InfoOption{{Text: "unscored"}}); ok {
		t.Error("ok should be false when nothing carries a score")
	}
}
