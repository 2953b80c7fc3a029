// Package weight provides access to the scalar cost weight attached to mesh regions.
//
// Tag is a writable, in-memory weight tag. Accessor wraps any types.WeightTag and
// adds the lookup policy used during selection: a missing weight either falls
// back to a configured default or is reported as types.ErrMissingWeight.
package weight
