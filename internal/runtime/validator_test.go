package runtime

import (
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int          { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestValidate_RequiredShortCircuits(t *testing.T) {
	// Required is checked first even when other rules would also fail.
	q := domain.Question{
		ID:         "name",
		Required:   true,
		Validation: &domain.ValidationRules{MinLength: intPtr(3)},
	}

	reason := Validate(q, "", nil)
	assert.Equal(t, "This question requires an answer", reason)

	reason = Validate(q, nil, nil)
	assert.Equal(t, "This question requires an answer", reason)
}

func TestValidate_EmptyAnswerSemantics(t *testing.T) {
	q := domain.Question{ID: "n", Required: true}

	assert.Empty(t, Validate(q, 0, nil), "zero is a real answer")
	assert.Empty(t, Validate(q, false, nil), "false is a real answer")
	assert.NotEmpty(t, Validate(q, "", nil))
}

func TestValidate_CustomValidatorRunsBeforeRules(t *testing.T) {
	q := domain.Question{
		ID:         "email",
		Validation: &domain.ValidationRules{MinLength: intPtr(100)},
	}
	custom := func(q domain.Question, answer any) string {
		return "custom says no"
	}

	assert.Equal(t, "custom says no", Validate(q, "a@b.c", custom))
}

func TestValidate_RuleOrder(t *testing.T) {
	tests := []struct {
		name   string
		rules  domain.ValidationRules
		answer any
		want   string
	}{
		{
			name:   "min length",
			rules:  domain.ValidationRules{MinLength: intPtr(5)},
			answer: "abc",
			want:   "Answer must be at least 5 characters",
		},
		{
			name:   "max length",
			rules:  domain.ValidationRules{MaxLength: intPtr(3)},
			answer: "abcdef",
			want:   "Answer must be at most 3 characters",
		},
		{
			name:   "min numeric",
			rules:  domain.ValidationRules{Min: floatPtr(1)},
			answer: 0.5,
			want:   "Value must be at least 1",
		},
		{
			name:   "max numeric",
			rules:  domain.ValidationRules{Max: floatPtr(10)},
			answer: 42,
			want:   "Value must be at most 10",
		},
		{
			name:   "pattern",
			rules:  domain.ValidationRules{Pattern: `^\d+$`},
			answer: "abc",
			want:   "Answer does not match the expected format",
		},
		{
			name:   "min length wins over pattern",
			rules:  domain.ValidationRules{MinLength: intPtr(5), Pattern: `^\d+$`},
			answer: "abc",
			want:   "Answer must be at least 5 characters",
		},
		{
			name:   "all rules pass",
			rules:  domain.ValidationRules{MinLength: intPtr(1), MaxLength: intPtr(10), Pattern: `^\d+$`},
			answer: "12345",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := domain.Question{ID: "q", Validation: &tt.rules}
			assert.Equal(t, tt.want, Validate(q, tt.answer, nil))
		})
	}
}

func TestValidate_OptionalEmptyAnswerSkipsRules(t *testing.T) {
	// An optional question left blank passes even with rules attached.
	q := domain.Question{
		ID:         "nickname",
		Validation: &domain.ValidationRules{MinLength: intPtr(3)},
	}
	assert.Empty(t, Validate(q, "", nil))
	assert.Empty(t, Validate(q, nil, nil))
}

func TestValidate_NonNumericAnswerSkipsNumericRules(t *testing.T) {
	q := domain.Question{ID: "q", Validation: &domain.ValidationRules{Min: floatPtr(5)}}
	assert.Empty(t, Validate(q, "not a number", nil))
}
