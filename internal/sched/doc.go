// Package sched implements a fixed-capacity cooperative task scheduler.
//
// # Overview
//
// A Scheduler owns a fixed array of task slots sized at construction. Each
// task is a named setup/loop/teardown callback triple with its own interval,
// timeout and priority. The host drives the scheduler by calling Tick once
// per iteration of its own main loop; every tick runs at most one loop
// callback per due task, in descending priority order with ascending slot
// index as the tie break.
//
// Nothing is allocated after construction: deleted slots are recycled through
// a free list threaded through the slot array itself, so the memory ceiling
// is fixed for the lifetime of the instance.
//
// # Time
//
// All timing is in unsigned 32-bit milliseconds from a Clock. The arithmetic
// is wraparound-safe: a clock that rolls over at 2^32 ms (about 49.7 days)
// produces correct due-time deltas across the boundary. Timeouts are
// advisory: a slow loop callback is reported through the timeout hook after
// it returns, never interrupted.
//
// # Reentrancy
//
// Callbacks run on the caller's goroutine and may call back into the
// scheduler's public API, including starting, stopping and deleting other
// tasks (or themselves, where the state machine allows it). A per-instance
// nesting counter bounds callback recursion; operations that would exceed
// the limit fail with ErrDepthExceeded instead of growing the stack.
// Calling Tick from inside a callback is rejected, as is Reset.
//
// # Concurrency
//
// The scheduler is deliberately single-threaded and unlocked: all mutation
// happens synchronously on the goroutine that calls Tick and the control
// API. Independent instances share no state. One instance may be promoted
// to the process-wide default via Promote for code that addresses the
// scheduler implicitly.
package sched
