// Package cavity resolves the cavity around a boundary vertex, the partitions
// the cavity could migrate to and whether migrating it would leave it
// disconnected from the rest of the unplanned mesh.
package cavity
