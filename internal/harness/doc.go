// Package harness runs scripted mutation scenarios against a controller and
// records a deterministic trace of every step.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: create_rollback
//	description: "A failed create leaves the projection as it was"
//	collection: lists
//	seed:
//	  - { name: "Pantry" }
//	steps:
//	  - op: load
//	  - op: create
//	    args: { name: "Groceries" }
//	    fail: "storage unavailable"
//	    expect:
//	      ok: false
//	      error: "Failed to create list"
//	assertions:
//	  - type: projection
//	    entries: [list-1]
//	  - type: trace_count
//	    op: create
//	    ok: false
//	    count: 1
//
// Seed records are written straight to the repository before the first
// step, so the controller only sees them after a load.
//
// # Step Operations
//
//   - create: args is the create input
//   - update: id and args (the patch)
//   - delete: id
//   - load, load_by_parent (id is the parent), clear, clear_error
//   - set_count: id and count
//
// A step may inject a repository failure with fail (the error message), or
// make a delete report "not deleted" with reject.
//
// # Assertion Types
//
//   - projection: the projection holds exactly entries, in order
//   - error: the controller's error message equals message
//   - final_state: the projected record id has the fields in expect
//   - count: the auxiliary count of id equals count
//   - trace_count: op appears count times in the trace (optionally
//     filtered by ok)
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory repository with sequential
// durable ids ("list-1", "list-2", ...), sequential temporary ids
// ("temp-tmp-1", ...) and a clock that advances one second per reading, so
// the trace of a scenario is identical across runs and can be compared with
// a golden file.
package harness
