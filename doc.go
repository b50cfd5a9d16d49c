// Package canopy is a question flow engine: it turns an ordered list of
// question definitions into a guided, resumable answering session with
// conditional visibility, declarative validation, flagging, auto-save, and
// auto-advance.
//
// The engine owns flow state only. It renders nothing: widgets read the
// current question and report values back through Flow.Answer, and hosts
// observe progress through lifecycle hooks. Persistence and completion
// callbacks are the engine's only boundary-crossing calls, and both are
// fire-and-forget.
//
// A minimal session:
//
//	engine, err := canopy.LoadFile("survey.yaml",
//		canopy.WithAllowSkip(),
//		canopy.WithAutoSave(10*time.Second),
//		canopy.WithStore(store),
//	)
//	if err != nil { ... }
//
//	flow, err := engine.StartSession(ctx, sessionID)
//	if err != nil { ... }
//	defer flow.Close()
//
//	flow.Answer(ctx, "role", "dev")
//	flow.Next(ctx)
package canopy
