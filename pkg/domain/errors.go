package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrFlowComplete is returned when an operation requires an active flow but
// the flow has already reached its terminal state.
var ErrFlowComplete = errors.New("flow already complete")

// ErrUnknownQuestion is returned when an operation references a question id
// that is not part of the questionnaire.
var ErrUnknownQuestion = errors.New("unknown question")

// ErrBankExhausted is returned when a question bank has no unused questions left.
var ErrBankExhausted = errors.New("question bank exhausted")
