package domain

// QuestionType constants enumerate the closed set of widget kinds the engine
// knows about. Rendering is the host's concern; the engine only uses the type
// to decide behavior such as auto-advance eligibility.
const (
	TypeMultipleChoice         = "multiple-choice"
	TypeYesNo                  = "yes-no"
	TypeRating                 = "rating"
	TypeRanking                = "ranking"
	TypeCodeComparison         = "code-comparison"
	TypeArchitectureComparison = "architecture-comparison"
	TypeTimeEstimate           = "time-estimate"
	TypeDifficultyScale        = "difficulty-scale"
	TypeDebtTolerance          = "debt-tolerance"
	TypeText                   = "text"
	TypeNumber                 = "number"
)

// KnownTypes lists every valid question type. Used by the compiler to reject
// documents carrying unknown widget kinds.
var KnownTypes = []string{
	TypeMultipleChoice,
	TypeYesNo,
	TypeRating,
	TypeRanking,
	TypeCodeComparison,
	TypeArchitectureComparison,
	TypeTimeEstimate,
	TypeDifficultyScale,
	TypeDebtTolerance,
	TypeText,
	TypeNumber,
}

// Question is the immutable definition of one prompt. It is supplied once at
// flow construction and never mutated during a session.
type Question struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`

	// Text is the prompt shown to the respondent.
	Text        string `json:"text" yaml:"text"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// Validation holds the declarative rules checked on navigation attempts.
	Validation *ValidationRules `json:"validation,omitempty" yaml:"validation,omitempty"`

	// Conditions gate visibility. All conditions must hold (logical AND).
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// Config carries widget-specific parameters. The engine treats it as
	// opaque except for the keys it needs for behavior (see SingleSelect).
	// Typed decoding for renderers lives in the widget package.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// SingleSelect reports whether answering this question yields exactly one
// choice, which makes it eligible for auto-advance. Multiple-choice questions
// configured for multiple selection do not qualify.
func (q Question) SingleSelect() bool {
	switch q.Type {
	case TypeYesNo:
		return true
	case TypeMultipleChoice:
		multi, _ := q.Config[ConfigKeyMultipleSelection].(bool)
		return !multi
	default:
		return false
	}
}

// Questionnaire is an ordered list of questions with identifying metadata.
type Questionnaire struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Question returns the definition with the given id, or false if absent.
func (qn Questionnaire) Question(id string) (Question, bool) {
	for _, q := range qn.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// ValidationRules are the declarative checks applied to a candidate answer.
// Pointer fields distinguish "unset" from zero values.
type ValidationRules struct {
	MinLength *int     `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}
