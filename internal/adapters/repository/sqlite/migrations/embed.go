package migrations

import "embed"

// FS contains embedded SQLite migrations for roster and history storage.
//
//go:embed *.sql
var FS embed.FS
