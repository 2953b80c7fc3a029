// Package strategy provides migration-plan selection strategies.
//
// The package includes one built-in strategy:
//
//   - VertexSelector: Multi-round boundary-vertex cavity selection
//
// # Vertex Selection
//
// VertexSelector walks the vertices of a partition's local mesh in ascending
// distance from the partition boundary. For each vertex it considers the
// cavity, the regions around the vertex not yet planned, and the partitions
// sharing the most sides with the vertex. A cavity moves voluntarily when a
// candidate partition still wants weight and the cavity fits the round's size
// cap. A cavity that would be left disconnected from the remaining unplanned
// mesh moves to the first candidate regardless of targets or cap.
//
// Six rounds run with caps 2, 4, 6, 8, 10 and 12, so small cavities are
// preferred and larger ones are admitted only when small ones did not meet the
// targets. A round stops early once the committed weight exceeds the target
// total.
//
// Candidate ties are broken by ascending partition id.
//
// Custom strategies can be implemented by satisfying the meshbal.Selector interface.
package strategy
