package migrations

import "embed"

// FS contains embedded SQLite migrations for the translation memory.
//
//go:embed *.sql
var FS embed.FS
