// Package dispatch executes the actions produced by routing-scheme evaluation.
//
// The dispatcher takes a matched item and the ordered action list for it,
// resolves each action's desk/stage destination, applies the optional macro to
// a private copy of the item, and hands the copy to the archive as a fetch or
// a publish.
//
// Failure isolation:
//   - Destination unresolvable → that action fails, the rest run
//   - Macro missing or erroring → that action fails, the rest run
//   - Archive error → that action fails, the rest run
//
// Results are returned positionally aligned with the input actions even when
// dispatch runs on multiple workers, so callers can report per-rule outcomes
// deterministically.
package dispatch
