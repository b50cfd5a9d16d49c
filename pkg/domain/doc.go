// Package domain contains the core types of the Canopy question flow engine:
// questionnaire definitions, visibility conditions, validation rules, answer
// maps, persistable snapshots, and the lifecycle hook contracts.
//
// The package has no dependencies and no behavior beyond small value helpers;
// the state-transition logic lives in the engine runtime.
package domain
