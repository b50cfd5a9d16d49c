package domain

import "time"

// AnswerMap holds recorded answers keyed by question id. Value shapes depend
// on the question type (string, number, string slice, structured map).
// Answers are never deleted during a session; hiding a question preserves its
// prior answer so re-showing it restores what the respondent entered.
type AnswerMap map[string]any

// Clone returns a shallow copy. Answer values are treated as immutable by the
// engine, so copying the top-level map is enough to decouple snapshots.
func (a AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Direction indicates how the flow position changed.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// Snapshot is the persistable value of an in-progress flow. It is what a
// SnapshotStore saves and what a resumed session is seeded from.
type Snapshot struct {
	QuestionnaireID string    `json:"questionnaire_id,omitempty"`
	CurrentIndex    int       `json:"current_index"`
	Answers         AnswerMap `json:"answers"`
	Flagged         []string  `json:"flagged,omitempty"`
	Completed       bool      `json:"completed"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Clone deep-copies the snapshot so later mutations of the live flow cannot
// retroactively change what was saved.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Answers = s.Answers.Clone()
	out.Flagged = append([]string(nil), s.Flagged...)
	return out
}
