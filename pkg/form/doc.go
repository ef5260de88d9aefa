// Package form is the public surface of the form-state engine.
//
// A Form tracks the values, validation errors and interaction history
// (dirty and touched) of named, arbitrarily nested fields, including field
// arrays, and notifies watchers only when state they depend on changes.
// It re-exports the types consumers need from the engine packages.
//
// # Paths
//
// Fields are addressed by Path values parsed once from dotted strings:
//
//	username := form.MustPath("username")
//	first := form.MustPath("phNumbers.0.number")
//
// All-digit segments are array indices. A path that the declared shape
// does not allow is rejected synchronously with an *InvalidPathError.
//
// # Concurrency
//
// A Form is driven from one goroutine. Deferred defaults and asynchronous
// validation predicates run on helper goroutines; their results are
// applied when the owner calls Poll or Await, and HandleSubmit awaits them
// before deciding.
//
// # Watching
//
// Watch takes a Selector:
//
//   - AllValues() fires on every commit that writes values
//   - Paths(ps...) fires when a commit writes an overlapping path
//   - Derived(kind) fires when an aggregate such as Errors or DirtyFields
//     actually changes
//   - Everything() fires on every commit
//
// Notifications are delivered synchronously in commit order. Unsubscribe
// takes effect immediately, even for a commit being delivered.
package form
