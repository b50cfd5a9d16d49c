// Package ports declares the interfaces at the boundary of the engine:
// snapshot persistence, questionnaire sources, question-bank usage storage,
// and distributed locking. Adapters implementing them live under
// internal/adapters.
package ports
