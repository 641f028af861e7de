// Package migrations embeds the schema migrations for the ingest ledger.
package migrations

import "embed"

// FS holds the SQL migration files, embedded at compile time so the
// ledger database can be created anywhere without shipping extra files.
//
//go:embed *.sql
var FS embed.FS
