// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

// Package audit records an immutable trail of state-changing API actions.
//
// The pipeline has three parts:
//
//   - Classification (classify.go): pure functions mapping (method, path)
//     to an action tag, deciding whether a request is auditable at all,
//     and redacting sensitive fields from captured request details.
//
//   - Recorder (recorder.go): a bounded-queue asynchronous writer. Records
//     are enqueued after the HTTP response has been sent; a full queue
//     drops the record rather than blocking the request path. Delivery is
//     at-most-once with no retry.
//
//   - Store (store.go, duckdb_store.go): validated, indexed persistence
//     with a retention sweep. MemoryStore backs tests and development;
//     DuckDBStore is the durable production store.
//
// Nothing in this package is allowed to fail a request. Every error
// degrades to "skip the audit side effect" and an operational log line.
package audit
