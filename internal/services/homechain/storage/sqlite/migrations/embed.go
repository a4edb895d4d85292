package migrations

import "embed"

// FS contains embedded SQLite migrations for the homechain registries.
//
//go:embed *.sql
var FS embed.FS
