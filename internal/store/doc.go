// Package store provides SQLite-backed durable storage for entangle sessions.
//
// A session owns the impl namespace counter. Persisting it lets separate
// invocations of the tool keep allocating __implN names that never repeat
// within the session. The store records:
//   - Sessions: id, counter start and the next unallocated counter value
//   - Runs: one expansion pass over a set of constructs
//   - Expansions: per-construct outcome with the hash of the rendered source
//   - Diagnostics: warnings and errors attached to an expansion
//
// # Ordering
//
// All queries order by run ASC, seq ASC where seq is the position of the
// construct within its run. Timestamps are never stored, so replaying a
// session yields identical rows.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING on the natural keys, so recording the
// same run twice is a no-op.
//
// # Integrity
//
// The counter only moves forward: a trigger rejects lowering next_impl and
// Open refuses a log in which a session's next_impl is below the end of one
// of its runs (ErrCounterBehind). Schema changes are numbered migrations
// tracked in user_version.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
