package runtime

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// Visible reports whether a question should be shown given the collected
// answers. A question with no conditions is always visible; otherwise every
// condition must hold. The function is pure: same inputs, same result.
func Visible(q domain.Question, answers domain.AnswerMap) bool {
	for _, c := range q.Conditions {
		dep, ok := answers[c.DependsOn]
		if !ok || dep == nil {
			// An unanswered dependency never satisfies any operator,
			// including not-equals. A dangling depends_on id lands here
			// too, hiding the question instead of failing the flow.
			return false
		}
		if !holds(c, dep) {
			return false
		}
	}
	return true
}

// holds evaluates a single condition against the (non-nil) dependency answer.
func holds(c domain.Condition, dep any) bool {
	switch c.Operator {
	case domain.OpEquals:
		return equalValues(dep, c.Value)
	case domain.OpNotEquals:
		return !equalValues(dep, c.Value)
	case domain.OpContains:
		return containsValue(dep, c.Value)
	case domain.OpGreaterThan:
		a, aok := toFloat(dep)
		b, bok := toFloat(c.Value)
		return aok && bok && a > b
	case domain.OpLessThan:
		a, aok := toFloat(dep)
		b, bok := toFloat(c.Value)
		return aok && bok && a < b
	default:
		return false
	}
}

// equalValues compares strictly by kind: a string never equals a number.
// Numeric types are normalized first so int(5) from Go code matches
// float64(5) from decoded JSON.
func equalValues(a, b any) bool {
	if af, aok := numeric(a); aok {
		bf, bok := numeric(b)
		return bok && af == bf
	}
	if _, bok := numeric(b); bok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// containsValue implements the contains operator: member test when the
// dependency is a slice, substring test on string-coerced values otherwise.
func containsValue(dep, want any) bool {
	rv := reflect.ValueOf(dep)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if equalValues(rv.Index(i).Interface(), want) {
				return true
			}
		}
		return false
	}
	return strings.Contains(stringify(dep), stringify(want))
}

// numeric converts Go numeric types to float64 without parsing strings.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// toFloat coerces a value for ordered comparison. Strings are parsed; an
// unparsable value reports false, which fails the comparison.
func toFloat(v any) (float64, bool) {
	if f, ok := numeric(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
