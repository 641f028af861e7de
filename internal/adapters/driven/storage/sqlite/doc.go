// Package sqlite provides SQLite-backed persistence for the
// ingestion ledger, using embedded SQL migrations.
package sqlite
