// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for the hot paths of tagscope, used
// for profiling and PGO profile generation:
//   - Gherkin and JBehave parsing
//   - Workspace discovery on disk
//   - Full tree builds, batched reconciliation and layout switches
//   - Snapshot rendering
//   - Parse cache lookups
//
// To generate a PGO profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
