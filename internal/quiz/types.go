// Package quiz loads and validates the diagnostic configuration document:
// categories, their questions and result tiers, the intro-step fields and
// the global settings. A *Quiz is immutable once Parse returns it; every
// other package reads it and none of them may change it.
package quiz

import (
	"encoding/json"
	"fmt"
)

// Variant selects the answer format and the scoring rules.
type Variant string

const (
	VariantWeighted Variant = "weighted" // multiple choice, each option carries a score
	VariantBinary   Variant = "binary"   // implicit Yes / No options
)

// Binary questions have exactly these two implicit options.
const (
	YesText  = "Yes"
	NoText   = "No"
	YesScore = 10.0
	NoScore  = 0.0
)

// TeamSizeField is the intro field id used for the team-size selection.
const TeamSizeField = "teamSize"

// Option is a single answer choice.
type Option struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Question is a prompt plus its ordered options. Options is empty in the
// document for binary quizzes; Flat() materialises Yes / No for them.
type Question struct {
	Text    string   `json:"text"`
	Options []Option `json:"options,omitempty"`
}

// Tier is one qualitative result bucket with its copy. Range is [min, max].
type Tier struct {
	Range       [2]float64 `json:"range"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tips        []string   `json:"tips,omitempty"`
}

// Min returns the lower bound of the tier range.
func (t Tier) Min() float64 { return t.Range[0] }

// Max returns the upper bound of the tier range.
func (t Tier) Max() float64 { return t.Range[1] }

// Tiers holds the low / mid / high result copy of a category.
type Tiers struct {
	Low  Tier `json:"low"`
	Mid  Tier `json:"mid"`
	High Tier `json:"high"`
}

// Category is a thematic group of questions with its own score and copy.
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Icon      string     `json:"icon"`
	Questions []Question `json:"questions"`
	Results   Tiers      `json:"results"`
}

// InfoOption is a business-info choice. In the document it is written either
// as a plain label or as {"text": ..., "score": ...}.
type InfoOption struct {
	Text  string   `json:"text"`
	Score *float64 `json:"score,omitempty"`
}

// UnmarshalJSON accepts both the label and the object form.
func (o *InfoOption) UnmarshalJSON(b []byte) error {
	var label string
	if err := json.Unmarshal(b, &label); err == nil {
		*o = InfoOption{Text: label}
		return nil
	}

	var obj struct {
		Text  string   `json:"text"`
		Score *float64 `json:"score"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("business info option: expected a label or {text, score}: %w", err)
	}
	*o = InfoOption{Text: obj.Text, Score: obj.Score}
	return nil
}

// InfoField is a business-info question asked on the intro step.
type InfoField struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Options []InfoOption `json:"options"`
}

// Settings is the "config" block of the document.
type Settings struct {
	// Variant is optional in the document; Parse always fills it in.
	Variant Variant `json:"variant,omitempty"`

	TeamSizeOptions     []string `json:"teamSizeOptions,omitempty"`
	MaxScorePerCategory float64  `json:"maxScorePerCategory,omitempty"`
	CTAURL              string   `json:"ctaUrl"`

	// IncludeBusinessInfoScores exposes the scores of the selected
	// business-info options as a separate result. They are never mixed into
	// the category scores.
	IncludeBusinessInfoScores bool `json:"includeBusinessInfoScores,omitempty"`
}

// document is the wire shape of the configuration file.
type document struct {
	Categories   []Category  `json:"categories"`
	Settings     Settings    `json:"config"`
	BusinessInfo []InfoField `json:"businessInfo,omitempty"`
}

// FlatQuestion is one entry of the flattened, order-stable question list.
// Index is its position in that list.
type FlatQuestion struct {
	Index         int      `json:"index"`
	CategoryID    string   `json:"categoryId"`
	CategoryName  string   `json:"categoryName"`
	CategoryIndex int      `json:"categoryIndex"`
	QuestionIndex int      `json:"questionIndex"`
	Text          string   `json:"text"`
	Options       []Option `json:"options"`
}
