// Package widget provides typed views of question configuration for the
// rendering boundary. The engine treats a question's config as opaque; these
// decoded shapes give renderers statically known variants instead of
// duck-typed map lookups.
package widget

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/canopy/pkg/domain"
)

// ChoiceConfig parameterizes multiple-choice and yes-no widgets.
type ChoiceConfig struct {
	Options           []string `mapstructure:"options"`
	MultipleSelection bool     `mapstructure:"multiple_selection"`
	AllowOther        bool     `mapstructure:"allow_other"`
}

// RatingConfig parameterizes rating widgets.
type RatingConfig struct {
	Min      int    `mapstructure:"min"`
	Max      int    `mapstructure:"max"`
	MinLabel string `mapstructure:"min_label"`
	MaxLabel string `mapstructure:"max_label"`
}

// ScaleConfig parameterizes difficulty and debt-tolerance scales.
type ScaleConfig struct {
	Levels []string `mapstructure:"levels"`
}

// RankingConfig parameterizes ranking widgets.
type RankingConfig struct {
	Items []string `mapstructure:"items"`
}

// ComparisonConfig parameterizes code and architecture comparison widgets.
type ComparisonConfig struct {
	VariantA string `mapstructure:"variant_a"`
	VariantB string `mapstructure:"variant_b"`
	Language string `mapstructure:"language"`
}

// TimeEstimateConfig parameterizes time-estimate widgets.
type TimeEstimateConfig struct {
	Units []string `mapstructure:"units"`
}

// Decode maps a question's raw config onto the typed shape for its widget
// kind. Types without structured config (free text, number) return the raw
// map unchanged, the only place a loose fallback is allowed. The compiler
// calls Decode per question, so a parsed document carries only decodable
// configs.
func Decode(q domain.Question) (any, error) {
	switch q.Type {
	case domain.TypeMultipleChoice, domain.TypeYesNo:
		return decode[ChoiceConfig](q)
	case domain.TypeRating:
		return decode[RatingConfig](q)
	case domain.TypeDifficultyScale, domain.TypeDebtTolerance:
		return decode[ScaleConfig](q)
	case domain.TypeRanking:
		return decode[RankingConfig](q)
	case domain.TypeCodeComparison, domain.TypeArchitectureComparison:
		return decode[ComparisonConfig](q)
	case domain.TypeTimeEstimate:
		return decode[TimeEstimateConfig](q)
	default:
		return q.Config, nil
	}
}

func decode[T any](q domain.Question) (T, error) {
	var out T
	if q.Config == nil {
		return out, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &out,
		ErrorUnused: false,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(q.Config); err != nil {
		return out, fmt.Errorf("question %s: invalid config: %w", q.ID, err)
	}
	return out, nil
}
