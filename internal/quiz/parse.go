package quiz

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"sigs.k8s.io/yaml"
)

// ErrInvalid is wrapped by every error caused by the document itself:
// malformed syntax, schema violations and semantic checks.
var ErrInvalid = errors.New("quiz: invalid configuration")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://diagnostic-quiz.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// compiledSchema compiles the embedded document schema once per process.
func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("quiz: parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			schemaErr = fmt.Errorf("quiz: add schema resource: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("quiz: compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// Parse decodes a JSON or YAML configuration document and validates it.
// Validation is all-or-nothing: any problem fails the whole document, and
// every problem found is reported in the returned error.
func Parse(data []byte) (*Quiz, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalid)
	}

	// JSON is a subset of YAML, so both go through the same conversion.
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed document: %w", ErrInvalid, err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed document: %w", ErrInvalid, err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %w", ErrInvalid, err)
	}
	doc.Settings.Variant = resolveVariant(doc.Settings)

	if err := validate(&doc); err != nil {
		return nil, err
	}

	return &Quiz{
		categories:   doc.Categories,
		settings:     doc.Settings,
		businessInfo: doc.BusinessInfo,
		flat:         flatten(doc.Categories, doc.Settings.Variant),
		scaleMax:     scaleMaxOf(&doc),
	}, nil
}

// resolveVariant honours an explicit variant, otherwise infers it from the
// variant-specific settings.
func resolveVariant(s Settings) Variant {
	switch {
	case s.Variant != "":
		return s.Variant
	case s.MaxScorePerCategory > 0:
		return VariantBinary
	default:
		return VariantWeighted
	}
}

func scaleMaxOf(doc *document) float64 {
	if doc.Settings.Variant == VariantBinary {
		return YesScore
	}
	var top float64
	for _, c := range doc.Categories {
		for _, q := range c.Questions {
			for _, o := range q.Options {
				top = max(top, o.Score)
			}
		}
	}
	return top
}

func validate(doc *document) error {
	var errs []error
	s := doc.Settings

	if len(doc.Categories) == 0 {
		errs = append(errs, errors.New("categories must not be empty"))
	}

	if strings.TrimSpace(s.CTAURL) == "" {
		errs = append(errs, errors.New("config.ctaUrl is required"))
	} else if _, err := url.Parse(s.CTAURL); err != nil {
		errs = append(errs, fmt.Errorf("config.ctaUrl: %w", err))
	}

	scaleMax := scaleMaxOf(doc)
	categoryMax := scaleMax
	switch s.Variant {
	case VariantBinary:
		if s.MaxScorePerCategory <= 0 {
			errs = append(errs, errors.New("config.maxScorePerCategory must be positive for binary quizzes"))
		}
		categoryMax = s.MaxScorePerCategory
	case VariantWeighted:
		if scaleMax <= 0 && len(doc.Categories) > 0 {
			errs = append(errs, errors.New("weighted quizzes need at least one option with a positive score"))
		}
	}

	seen := make(map[string]bool, len(doc.Categories))
	for ci, c := range doc.Categories {
		where := fmt.Sprintf("categories[%d]", ci)

		switch id := strings.TrimSpace(c.ID); {
		case id == "":
			errs = append(errs, fmt.Errorf("%s: id is required", where))
		case seen[id]:
			errs = append(errs, fmt.Errorf("%s: duplicate id %q", where, id))
		default:
			seen[id] = true
		}
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", where))
		}

		if len(c.Questions) == 0 {
			errs = append(errs, fmt.Errorf("%s: questions must not be empty", where))
		}
		for qi, q := range c.Questions {
			errs = append(errs, validateQuestion(fmt.Sprintf("%s.questions[%d]", where, qi), q, s.Variant)...)
		}

		errs = append(errs, validateTiers(where+".results", c.Results, categoryMax)...)
	}

	errs = append(errs, validateIntro(doc)...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func validateQuestion(where string, q Question, variant Variant) []error {
	var errs []error
	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, fmt.Errorf("%s: text is required", where))
	}

	if variant == VariantBinary {
		if len(q.Options) > 0 {
			errs = append(errs, fmt.Errorf("%s: binary questions take implicit Yes/No options", where))
		}
		return errs
	}

	if len(q.Options) == 0 {
		errs = append(errs, fmt.Errorf("%s: options must not be empty", where))
	}
	for oi, o := range q.Options {
		if strings.TrimSpace(o.Text) == "" {
			errs = append(errs, fmt.Errorf("%s.options[%d]: text is required", where, oi))
		}
		if o.Score < 0 {
			errs = append(errs, fmt.Errorf("%s.options[%d]: score %g is negative", where, oi, o.Score))
		}
	}
	return errs
}

// validateTiers enforces low < mid < high and a reachable mid tier. Adjacent
// tiers may share an endpoint; the shared value classifies as the lower tier.
func validateTiers(where string, t Tiers, categoryMax float64) []error {
	var errs []error
	for _, tier := range []struct {
		name string
		t    Tier
	}{{"low", t.Low}, {"mid", t.Mid}, {"high", t.High}} {
		if tier.t.Min() > tier.t.Max() {
			errs = append(errs, fmt.Errorf("%s.%s: range min %g is above max %g", where, tier.name, tier.t.Min(), tier.t.Max()))
		}
	}
	if t.Mid.Min() < t.Low.Max() {
		errs = append(errs, fmt.Errorf("%s: low range [%g,%g] overlaps mid range [%g,%g]",
			where, t.Low.Min(), t.Low.Max(), t.Mid.Min(), t.Mid.Max()))
	}
	if t.High.Min() < t.Mid.Max() {
		errs = append(errs, fmt.Errorf("%s: mid range [%g,%g] overlaps high range [%g,%g]",
			where, t.Mid.Min(), t.Mid.Max(), t.High.Min(), t.High.Max()))
	}
	if categoryMax > 0 && t.Mid.Max() > categoryMax {
		errs = append(errs, fmt.Errorf("%s: mid max %g exceeds the category max score %g", where, t.Mid.Max(), categoryMax))
	}
	return errs
}

func validateIntro(doc *document) []error {
	var errs []error

	sizes := make(map[string]bool, len(doc.Settings.TeamSizeOptions))
	for i, size := range doc.Settings.TeamSizeOptions {
		switch {
		case strings.TrimSpace(size) == "":
			errs = append(errs, fmt.Errorf("config.teamSizeOptions[%d]: must not be blank", i))
		case sizes[size]:
			errs = append(errs, fmt.Errorf("config.teamSizeOptions[%d]: duplicate %q", i, size))
		}
		sizes[size] = true
	}

	ids := map[string]bool{}
	if len(doc.Settings.TeamSizeOptions) > 0 {
		ids[TeamSizeField] = true
	}
	for fi, f := range doc.BusinessInfo {
		where := fmt.Sprintf("businessInfo[%d]", fi)
		switch id := strings.TrimSpace(f.ID); {
		case id == "":
			errs = append(errs, fmt.Errorf("%s: id is required", where))
		case ids[id]:
			errs = append(errs, fmt.Errorf("%s: duplicate id %q", where, id))
		default:
			ids[id] = true
		}
		if len(f.Options) == 0 {
			errs = append(errs, fmt.Errorf("%s: options must not be empty", where))
		}
		labels := make(map[string]bool, len(f.Options))
		for oi, o := range f.Options {
			switch {
			case strings.TrimSpace(o.Text) == "":
				errs = append(errs, fmt.Errorf("%s.options[%d]: text is required", where, oi))
			case labels[o.Text]:
				errs = append(errs, fmt.Errorf("%s.options[%d]: duplicate option %q", where, oi, o.Text))
			}
			labels[o.Text] = true
		}
	}
	return errs
}
