// Package harness provides conformance testing for entangle declarations.
//
// The harness compiles declaration files, expands every construct through a
// session backed by an in-memory store, and checks the per-construct outcome
// and the rendered source against a YAML scenario.
//
// # Scenario Format
//
//	name: counter_basic
//	description: "Counter splits and forwards increment"
//	specs:
//	  - specs/counter.cue
//	start_counter: 0
//	policy: auto
//	expect:
//	  - construct: Counter
//	    kind: struct
//	    namespace: __CounterActor
//	  - construct: Counter
//	    namespace: __impl0
//	  - construct: Counter
//	    error_code: E202
//	assertions:
//	  - type: output_contains
//	    construct: Counter
//	    text: "self.addr.send"
//	  - type: final_counter
//	    count: 1
//	golden: true
//
// Expectations are positional: entry i describes construct i in load
// order (structs first, then impls). An empty error_code means the
// construct must expand; warnings lists the exact warning codes.
//
// # Assertion Types
//
//   - output_contains: rendered source (of one construct or all) contains text
//   - output_excludes: rendered source does not contain text
//   - output_count: text occurs exactly count times in the combined source
//   - namespace_order: impl namespaces of successful handler blocks, in order
//   - final_counter: the session's stored next_impl after the run
//
// # Deterministic Testing
//
// Every scenario runs with a fixed session id, a counter starting at
// start_counter and an isolated in-memory SQLite store, so the rendered
// source is byte-identical across runs and can be compared to a golden file.
package harness
