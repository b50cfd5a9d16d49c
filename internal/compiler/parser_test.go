package compiler

import (
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
id: dev-survey
title: Developer Survey
questions:
  - id: role
    type: multiple-choice
    text: What is your role?
    required: true
    config:
      options: [dev, designer]
  - id: years
    type: number
    text: Years of experience?
    required: true
    validation:
      min: 0
      max: 60
  - id: mentor
    type: yes-no
    text: Do you mentor others?
    required: true
    conditions:
      - depends_on: years
        operator: greater-than
        value: 5
`

func TestParser_ParseDocument(t *testing.T) {
	qn, err := NewParser().Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "dev-survey", qn.ID)
	assert.Equal(t, "Developer Survey", qn.Title)
	require.Len(t, qn.Questions, 3)

	mentor, ok := qn.Question("mentor")
	require.True(t, ok)
	require.Len(t, mentor.Conditions, 1)
	assert.Equal(t, "years", mentor.Conditions[0].DependsOn)
	assert.Equal(t, domain.OpGreaterThan, mentor.Conditions[0].Operator)
	assert.Equal(t, 5, mentor.Conditions[0].Value)

	years, _ := qn.Question("years")
	require.NotNil(t, years.Validation)
	assert.Equal(t, float64(0), *years.Validation.Min)
	assert.Equal(t, float64(60), *years.Validation.Max)
}

func TestParser_Rejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing id",
			doc: `
questions:
  - {id: a, type: text, text: A}
`,
			want: "missing id",
		},
		{
			name: "no questions",
			doc:  `{id: empty}`,
			want: "no questions",
		},
		{
			name: "duplicate question id",
			doc: `
id: doc
questions:
  - {id: a, type: text, text: A}
  - {id: a, type: text, text: again}
`,
			want: "duplicate question id",
		},
		{
			name: "unknown type",
			doc: `
id: doc
questions:
  - {id: a, type: hologram, text: A}
`,
			want: "unknown type",
		},
		{
			name: "unknown operator",
			doc: `
id: doc
questions:
  - {id: a, type: text, text: A}
  - id: b
    type: text
    text: B
    conditions:
      - {depends_on: a, operator: matches, value: x}
`,
			want: "unknown operator",
		},
		{
			name: "self dependency",
			doc: `
id: doc
questions:
  - id: a
    type: text
    text: A
    conditions:
      - {depends_on: a, operator: equals, value: x}
`,
			want: "depends on itself",
		},
		{
			name: "invalid pattern",
			doc: `
id: doc
questions:
  - id: a
    type: text
    text: A
    validation:
      pattern: "["
`,
			want: "invalid pattern",
		},
		{
			name: "min exceeds max",
			doc: `
id: doc
questions:
  - id: a
    type: number
    text: A
    validation: {min: 10, max: 5}
`,
			want: "min exceeds max",
		},
		{
			name: "malformed widget config",
			doc: `
id: doc
questions:
  - id: a
    type: rating
    text: A
    config:
      min: [1]
`,
			want: "invalid config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParser_DanglingDependsOnIsNotFatal(t *testing.T) {
	doc := `
id: doc
questions:
  - id: a
    type: text
    text: A
    conditions:
      - {depends_on: ghost, operator: equals, value: x}
`
	qn, err := NewParser().Parse([]byte(doc))
	require.NoError(t, err, "dangling depends_on is a warning, not a parse error")
	require.Len(t, qn.Questions, 1)
}

