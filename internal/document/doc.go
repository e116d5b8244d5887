// SPDX-License-Identifier: MPL-2.0

// Package document reads test-specification documents and reports the tags
// they carry.
//
// Two formats are understood: Gherkin feature files (.feature) and JBehave
// stories (.story). A FileParser reads and parses a single document, a Cache
// memoizes parse results so that tree updates never wait on I/O, and
// RemoveTag rewrites a document without a given tag.
//
// File organization:
//   - document.go: identities, occurrences and the collaborator interfaces
//   - gherkin.go: Gherkin format
//   - story.go: JBehave story format
//   - parser.go: FileParser (format dispatch, optional persistent store)
//   - cache.go: concurrency-safe memoizing Parser
//   - edit.go: tag removal
package document
