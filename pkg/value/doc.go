// Package value is the value tree model shared by every formstate package.
//
// A form's values form a single tree of Object, Array and scalar nodes.
// The tree is JSON-shaped with two deliberate restrictions:
//   - numbers are int64 (Int); there is no float node, so canonical bytes
//     and digests are stable across platforms
//   - dates travel as ISO-8601 strings (see DateLayout)
//
// Trees are treated as immutable once handed to the engine. Code that
// needs to change a tree copies the containers along the path it writes
// (see internal/path) and shares everything else.
package value
