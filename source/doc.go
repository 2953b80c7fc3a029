// Package source provides the vertex sequences a selection round walks.
//
// The package includes:
//
//   - Boundary: vertices ordered by ascending distance to the partition boundary
//
// A round consumes a fresh Boundary; Reset restarts the same order.
package source
