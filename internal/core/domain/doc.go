// Package domain defines the core business entities for ragbank.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: a retrievable unit of text (summary, record or page)
//   - Table: raw tabular customer data and its aggregate statistics
//   - Answer: generated text plus the documents it was grounded on
//   - EvaluationRecord: one scored question from an evaluation run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
