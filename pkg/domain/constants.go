package domain

// Config keys the engine reads from a question's otherwise opaque config map.
const (
	// ConfigKeyMultipleSelection marks a multiple-choice question as
	// accepting more than one option, which disables auto-advance.
	ConfigKeyMultipleSelection = "multiple_selection"
)
