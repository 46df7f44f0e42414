// Package session ties expansion runs to a persisted impl counter.
//
// A session is identified by an id (UUIDv7 unless given) and owns the
// counter that names __implN namespaces. Begin resumes the counter from the
// store so numbers never repeat across invocations of the tool, Record
// writes a run atomically and advances the stored counter, and Replay
// re-expands a recorded run from its start counter and reports every
// construct whose outcome changed.
//
// # Replay and Determinism
//
// Expansion is a pure function of (construct, counter value, policy,
// runtime). Re-expanding the same constructs from a run's StartImpl with its
// recorded policy must yield identical namespaces and output hashes:
//
//	recorded:  Foo → __impl3  hash a1f0…
//	replayed:  Foo → __impl3  hash a1f0…  (match)
//
// Any difference is reported as a Mismatch.
package session
