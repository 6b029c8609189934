// Package optimistic keeps an in-memory projection of one collection in step
// with its durable repository, applying every mutation before the repository
// confirms it.
//
// # Mutation lifecycle
//
// Every Create, Update and Delete moves through
//
//	Idle -> Optimistically-Applied -> (Confirmed | Rolled-Back) -> Idle
//
// The projection changes immediately; the repository call happens outside
// the controller's lock; the result either replaces the optimistic record
// with the durable one or puts back the last confirmed state. There is no
// retrying state: a caller re-issues the operation.
//
// # Overlapping mutations
//
// The controller keeps, per record id with mutations in flight, the last
// state the repository confirmed together with its auxiliary count. Each
// Update or Delete claims a new generation for its id. When the newest
// mutation of an id finishes, or the last one in flight does, the id is
// reset to the confirmed state, so a failed patch never stays visible and
// an older, slower response never overwrites a newer confirmed one.
//
// Records created optimistically carry a temporary id until the create
// confirms. Update and Delete reject temporary ids. Clear invalidates every
// in-flight mutation.
//
// # Errors
//
// Controllers never return errors to callers. Failures are recorded in a
// single message (last one wins) read through Error, and the operation
// reports failure through its boolean result.
package optimistic
