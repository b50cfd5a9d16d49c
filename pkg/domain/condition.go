package domain

// Operator constants for visibility conditions.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not-equals"
	OpContains    = "contains"
	OpGreaterThan = "greater-than"
	OpLessThan    = "less-than"
)

// KnownOperators lists every valid condition operator.
var KnownOperators = []string{
	OpEquals,
	OpNotEquals,
	OpContains,
	OpGreaterThan,
	OpLessThan,
}

// Condition makes a question's visibility depend on another question's
// answer. A question carrying several conditions is visible only when all of
// them hold.
type Condition struct {
	// DependsOn is the id of the answer this condition reads. An unanswered
	// dependency fails the condition regardless of operator.
	DependsOn string `json:"depends_on" yaml:"depends_on"`

	Operator string `json:"operator" yaml:"operator"`

	// Value is the right-hand side of the comparison.
	Value any `json:"value" yaml:"value"`
}
