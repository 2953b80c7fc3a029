// Package plan holds the migration plan built by a balancing run.
//
// A plan maps regions of the local mesh to destination partitions. Each
// region appears at most once; the first assignment wins and later attempts
// fail with types.ErrAlreadyPlanned. Membership is tracked in a roaring
// bitmap so cavity queries stay cheap on large meshes.
package plan
