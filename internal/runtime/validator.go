package runtime

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/aretw0/canopy/pkg/domain"
)

// Validate checks a candidate answer against a question's rules and returns
// the failure reason, or "" when the answer is acceptable. Checks run in a
// fixed order and short-circuit on the first violation: required, the custom
// validator, then min_length, max_length, min, max, pattern.
//
// Validation never mutates anything; recording the resulting error is the
// caller's job. A panicking custom validator therefore cannot leave the flow
// half-mutated.
func Validate(q domain.Question, answer any, custom domain.ValidatorFunc) string {
	if q.Required && isEmpty(answer) {
		return "This question requires an answer"
	}

	if custom != nil {
		if reason := custom(q, answer); reason != "" {
			return reason
		}
	}

	rules := q.Validation
	if rules == nil || isEmpty(answer) {
		return ""
	}

	if rules.MinLength != nil {
		if utf8.RuneCountInString(stringify(answer)) < *rules.MinLength {
			return fmt.Sprintf("Answer must be at least %d characters", *rules.MinLength)
		}
	}
	if rules.MaxLength != nil {
		if utf8.RuneCountInString(stringify(answer)) > *rules.MaxLength {
			return fmt.Sprintf("Answer must be at most %d characters", *rules.MaxLength)
		}
	}
	if rules.Min != nil {
		if f, ok := toFloat(answer); ok && f < *rules.Min {
			return fmt.Sprintf("Value must be at least %v", *rules.Min)
		}
	}
	if rules.Max != nil {
		if f, ok := toFloat(answer); ok && f > *rules.Max {
			return fmt.Sprintf("Value must be at most %v", *rules.Max)
		}
	}
	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err == nil && !re.MatchString(stringify(answer)) {
			return "Answer does not match the expected format"
		}
	}

	return ""
}

// isEmpty reports whether an answer counts as missing for the required check:
// nil or the empty string. A zero number or an empty slice is a real answer.
func isEmpty(answer any) bool {
	if answer == nil {
		return true
	}
	s, ok := answer.(string)
	return ok && s == ""
}
