// Package runtime implements the question flow state machine: the condition
// evaluator, the answer validator, the flow state store, navigation, and the
// auto-advance and auto-save schedulers. The public entry point wrapping this
// engine lives in the root canopy package.
package runtime
