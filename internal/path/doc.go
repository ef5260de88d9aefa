// Package path locates values inside a form's value tree.
//
// A Path is parsed once from its dotted form ("phNumbers.1.number") into
// an immutable sequence of segments. Every segment is either a mapping key
// or a sequence index; all-digit segments are indices.
//
// Access functions never mutate their input tree. Set and Unset copy the
// containers along the path and share the rest, so a tree handed out as a
// snapshot stays valid after later writes.
//
// A Shape describes the declared structure of a form's values. Paths that
// do not resolve against the shape are programming errors and surface as
// *InvalidPathError.
package path
