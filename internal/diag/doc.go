// Package diag defines the diagnostic model shared by all pipeline phases.
//
// Every finding of the front end, the scope manager, inference, cast
// resolution, interface synthesis and the import graph checker is a
// Diagnostic value. Phases never abort the pipeline: they emit through a
// Reporter (usually a BagReporter) and the driver funnels the bags into a
// Manager.
//
// # Data model
//
//   - Severity: Info, Warning, Error.
//   - Code: compact numeric identifier with a stable string form (SEM3004).
//     Code.Kind maps it onto the error taxonomy (ShadowingError,
//     InferenceError, CastWarning, CycleError).
//   - Reachability: whether the finding sits on a live runtime path.
//   - Primary span, optional notes, owning module.
//
// # Surfacing
//
// Manager keeps a complete audit log of everything recorded. What reaches
// the caller is decided by Flush, which consults an explicit Context (the
// reporting toggle, warning policy, limits). Execution halts only when a
// flush surfaces an error that is on a live path.
package diag
