// Package domain defines the core business entities for Newsquill.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Article: A stored news article keyed by canonical URL
//   - Chunk: A searchable unit within an article body
//   - RetrievalHit: A fused hybrid-search result
//   - BlogTask / BlogResult: A generation assignment and its output
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
