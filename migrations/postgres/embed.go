// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the PostgreSQL schema migrations, so the migrate command
// works from the binary alone without the source tree at hand.
//
//go:embed *.sql
var FS embed.FS
