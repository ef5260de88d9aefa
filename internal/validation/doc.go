// Package validation evaluates a field's rule set against a candidate value.
//
// Rules run in a fixed order: required, then pattern, then custom predicates
// in declaration order. Evaluation stops at the first failure, so a field
// carries at most one Error.
//
// Custom predicates may be asynchronous. When the runner reaches one it
// stops and returns a Pending that finishes the remaining rules when
// waited on. The runner never mutates the value tree it is given; callers
// own sequencing and discard results that arrive for superseded runs.
package validation
