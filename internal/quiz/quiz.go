package quiz

import "slices"

// Quiz is a validated, immutable diagnostic configuration. Construct it with
// Parse or Load. Accessors hand out copies so callers cannot reach into the
// shared structure.
type Quiz struct {
	categories   []Category
	settings     Settings
	businessInfo []InfoField
	flat         []FlatQuestion
	scaleMax     float64
}

// Variant reports the answer format of the quiz.
func (q *Quiz) Variant() Variant { return q.settings.Variant }

// Settings returns the global settings block.
func (q *Quiz) Settings() Settings {
	s := q.settings
	s.TeamSizeOptions = slices.Clone(q.settings.TeamSizeOptions)
	return s
}

// CTAURL is the call-to-action link shown with the results.
func (q *Quiz) CTAURL() string { return q.settings.CTAURL }

// Categories returns the categories in document order.
func (q *Quiz) Categories() []Category {
	out := make([]Category, len(q.categories))
	for i, c := range q.categories {
		out[i] = cloneCategory(c)
	}
	return out
}

// Category looks a category up by id.
func (q *Quiz) Category(id string) (Category, bool) {
	for _, c := range q.categories {
		if c.ID == id {
			return cloneCategory(c), true
		}
	}
	return Category{}, false
}

// CategoryCount returns the number of categories.
func (q *Quiz) CategoryCount() int { return len(q.categories) }

// BusinessInfo returns the intro-step business-info fields.
func (q *Quiz) BusinessInfo() []InfoField {
	out := make([]InfoField, len(q.businessInfo))
	for i, f := range q.businessInfo {
		f.Options = slices.Clone(f.Options)
		out[i] = f
	}
	return out
}

// Flat returns the flattened question list: category order, then question
// order within the category. This ordering defines every question index used
// by the engine.
func (q *Quiz) Flat() []FlatQuestion {
	out := make([]FlatQuestion, len(q.flat))
	for i, fq := range q.flat {
		fq.Options = slices.Clone(fq.Options)
		out[i] = fq
	}
	return out
}

// Question returns the flattened question at index i.
func (q *Quiz) Question(i int) (FlatQuestion, bool) {
	if i < 0 || i >= len(q.flat) {
		return FlatQuestion{}, false
	}
	fq := q.flat[i]
	fq.Options = slices.Clone(fq.Options)
	return fq, true
}

// TotalQuestions is len(Flat()).
func (q *Quiz) TotalQuestions() int { return len(q.flat) }

// ScaleMax is the highest score a single answer can earn: the largest option
// score for weighted quizzes, YesScore for binary ones.
func (q *Quiz) ScaleMax() float64 { return q.scaleMax }

// CategoryMax is the highest score a category can reach.
func (q *Quiz) CategoryMax() float64 {
	if q.settings.Variant == VariantBinary {
		return q.settings.MaxScorePerCategory
	}
	return q.scaleMax
}

func cloneCategory(c Category) Category {
	qs := make([]Question, len(c.Questions))
	for i, question := range c.Questions {
		question.Options = slices.Clone(question.Options)
		qs[i] = question
	}
	c.Questions = qs
	c.Results.Low.Tips = slices.Clone(c.Results.Low.Tips)
	c.Results.Mid.Tips = slices.Clone(c.Results.Mid.Tips)
	c.Results.High.Tips = slices.Clone(c.Results.High.Tips)
	return c
}

// flatten builds the canonical question list. Binary questions get the two
// implicit options.
func flatten(categories []Category, variant Variant) []FlatQuestion {
	var flat []FlatQuestion
	for ci, c := range categories {
		for qi, question := range c.Questions {
			opts := slices.Clone(question.Options)
			if variant == VariantBinary {
				opts = []Option{{Text: YesText, Score: YesScore}, {Text: NoText, Score: NoScore}}
			}
			flat = append(flat, FlatQuestion{
				Index:         len(flat),
				CategoryID:    c.ID,
				CategoryName:  c.Name,
				CategoryIndex: ci,
				QuestionIndex: qi,
				Text:          question.Text,
				Options:       opts,
			})
		}
	}
	return flat
}
