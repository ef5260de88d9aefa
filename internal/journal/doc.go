// Package journal records form commits in SQLite, the way a devtools
// inspector would: one row per notification with its kind, paths, the
// canonical value tree and a summary of the derived state.
//
// Rows are keyed by (session, seq). seq comes from the form's logical
// clock, never wall time, so a journal replays in commit order and two
// runs of the same scenario produce the same digests.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads while a form is recording
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package journal
