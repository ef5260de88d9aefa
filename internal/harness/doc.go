// Package harness runs YAML scenarios against forms compiled from CUE
// definitions.
//
// # Scenario Format
//
//	name: submit_invalid
//	description: "Submitting with a blank required field fails"
//	specs:
//	  - ../specs/youtube.cue
//	form: youtube
//	mode: onSubmit
//	defaults: literal
//	ids: [first, second]
//	steps:
//	  - op: register
//	    path: username
//	  - op: set
//	    path: username
//	    value: ""
//	  - op: submit
//	    valid: false
//	assertions:
//	  - type: errors
//	    expect: { username: required }
//	  - type: state
//	    expect: { submitCount: 1, isSubmitSuccessful: false }
//
// Spec paths are relative to the scenario file. Fields declared by the
// definition are registered with their rules before the first step.
//
// # Steps
//
// register, unregister, set, change, blur, trigger, submit, reset,
// set_error, clear_errors and await act on the form. append, prepend,
// insert, remove, remove_id, move, swap and replace act on the field array
// at path. A step may declare fail (stale_reference, invalid_path or
// error) and trigger and submit may declare valid.
//
// # Assertion Types
//
//   - values: the subtree at path contains expect
//   - errors: the final errors map each path to exactly these rules
//   - state: the derived state contains expect
//   - items: the field array at path holds exactly these item IDs
//   - kind_order: commits of these kinds appear in order
//   - kind_count: exactly count commits of kind
//
// # Deterministic Testing
//
// Every run uses a fresh logical clock and the scenario's item IDs, so
// the trace and final state are identical across runs and can be compared
// with golden files.
package harness
