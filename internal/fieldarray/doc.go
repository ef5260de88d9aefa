// Package fieldarray manages one array-typed path of a form as an ordered
// list of items with stable identities.
//
// Each item carries an ID assigned when it is created and never
// reassigned, and an Index recomputed after every structural change.
// Rendering layers must key items by ID: after a removal the indices of
// later items shift, and keying by index would hand one item's rendered
// state to its neighbour.
//
// Every operation is a single registry commit, so subscribers see one
// notification per append, remove or move rather than one per nested
// field.
package fieldarray
