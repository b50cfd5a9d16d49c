package compiler

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/widget"
)

// Parser converts raw questionnaire documents into domain values and checks
// them for consistency.
type Parser struct {
	logger *slog.Logger
}

// Option configures the Parser.
type Option func(*Parser)

// WithLogger sets the logger used for non-fatal findings (e.g. dangling
// depends_on references).
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser creates a parser instance.
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse decodes a YAML questionnaire document and validates it. Structural
// problems (duplicate ids, unknown types or operators, bad patterns,
// undecodable widget configs) are errors; a depends_on pointing at a
// question that does not exist is only
// logged, because the runtime treats it as an unanswered dependency and
// simply keeps the question hidden.
func (p *Parser) Parse(data []byte) (*domain.Questionnaire, error) {
	var qn domain.Questionnaire
	if err := yaml.Unmarshal(data, &qn); err != nil {
		return nil, fmt.Errorf("failed to parse questionnaire: %w", err)
	}
	if err := p.validate(&qn); err != nil {
		return nil, err
	}
	return &qn, nil
}

func (p *Parser) validate(qn *domain.Questionnaire) error {
	if qn.ID == "" {
		return fmt.Errorf("questionnaire missing id")
	}
	if len(qn.Questions) == 0 {
		return fmt.Errorf("questionnaire %s has no questions", qn.ID)
	}

	ids := make(map[string]bool, len(qn.Questions))
	for _, q := range qn.Questions {
		if q.ID == "" {
			return fmt.Errorf("questionnaire %s: question missing id", qn.ID)
		}
		if ids[q.ID] {
			return fmt.Errorf("questionnaire %s: duplicate question id %q", qn.ID, q.ID)
		}
		ids[q.ID] = true

		if !slices.Contains(domain.KnownTypes, q.Type) {
			return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
		}
		if _, err := widget.Decode(q); err != nil {
			return err
		}
		if err := validateRules(q); err != nil {
			return err
		}
		for _, c := range q.Conditions {
			if c.DependsOn == "" {
				return fmt.Errorf("question %s: condition missing depends_on", q.ID)
			}
			if c.DependsOn == q.ID {
				return fmt.Errorf("question %s: condition depends on itself", q.ID)
			}
			if !slices.Contains(domain.KnownOperators, c.Operator) {
				return fmt.Errorf("question %s: unknown operator %q", q.ID, c.Operator)
			}
		}
	}

	// Dangling references are survivable: the condition never holds and the
	// question stays hidden. Surface them so authors notice.
	for _, q := range qn.Questions {
		for _, c := range q.Conditions {
			if !ids[c.DependsOn] {
				p.logger.Warn("condition references unknown question; question will stay hidden",
					"question", q.ID,
					"depends_on", c.DependsOn)
			}
		}
	}

	return nil
}

func validateRules(q domain.Question) error {
	rules := q.Validation
	if rules == nil {
		return nil
	}
	if rules.MinLength != nil && *rules.MinLength < 0 {
		return fmt.Errorf("question %s: negative min_length", q.ID)
	}
	if rules.MinLength != nil && rules.MaxLength != nil && *rules.MinLength > *rules.MaxLength {
		return fmt.Errorf("question %s: min_length exceeds max_length", q.ID)
	}
	if rules.Min != nil && rules.Max != nil && *rules.Min > *rules.Max {
		return fmt.Errorf("question %s: min exceeds max", q.ID)
	}
	if rules.Pattern != "" {
		if _, err := regexp.Compile(rules.Pattern); err != nil {
			return fmt.Errorf("question %s: invalid pattern: %w", q.ID, err)
		}
	}
	return nil
}
