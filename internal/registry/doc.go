// Package registry implements the field registry: the single owner of a
// form's value tree, its defaults baseline, the per-field descriptors and
// the interaction flags derived state is computed from.
//
// # Single-writer model
//
// Every mutating method must be called from one owner goroutine. The
// registry never locks its state. Work that may block (deferred defaults
// producers and asynchronous validation predicates) runs on helper
// goroutines which post their results to an internal FIFO queue. Results
// are applied only when the owner calls Poll or Await, and results that
// belong to a superseded run are discarded on arrival.
//
// # Commits
//
// Each mutation that changes state is one commit. A commit takes the next
// sequence number from the logical clock and is published as exactly one
// Change carrying the state before and after it. Changes are delivered in
// commit order even when a subscriber mutates the registry from inside its
// callback.
//
// # Loading
//
// While a deferred defaults source is pending the registry is Loading:
// reads see the last resolved tree (or the shape's zero tree) and writes
// are queued, then replayed in issue order once the source settles.
package registry
