// Package entangle implements the Handle/Actor split transformation.
//
// Given a data-type declaration and its implementation blocks, the
// transformer emits:
//
//   - a duplicable Handle type holding only a mailbox address,
//   - a hidden actor namespace (`__<Name>Actor`) holding the real type,
//   - for every inherent implementation block, a numbered namespace
//     (`__impl<N>`) containing the Actor-side implementation (real logic)
//     and the Handle-side implementation (forwarding stubs),
//   - for every interface implementation block, the same block retargeted
//     at the Actor.
//
// # Sessions
//
// A Transformer owns the impl-namespace Counter for one compilation session.
// Independent sessions (tests, separate builds) use independent counters;
// a persisted session resumes its counter with NewCounterAt.
//
// # Diagnostics and errors
//
// The core never prints. Warnings come back on Expansion.Diagnostics and
// failures as *Error values classified as user or internal errors.
// A failing construct produces no output; siblings are unaffected.
package entangle
