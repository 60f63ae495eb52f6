// Package planner turns aggregated build-unit records into a deletion plan.
//
// The planner never touches the filesystem destructively. It answers three
// questions for each record handed over by the aggregator:
//   - Is it safe to touch this unit's outputs at all? (SafetyGate)
//   - Which concrete directories should go? (Resolver)
//   - What does the combined, de-duplicated plan look like? (CandidateSet, DeletionPlan)
//
// Key responsibilities:
//   - Veto units whose outputs would swallow a project or solution
//   - Narrow primary output directories to recognized framework folders
//   - Merge candidates from many units under one case-folded key
//   - Summarize file counts and sizes for reporting
package planner
