// internal/adapters/db/embed.go
package db

import "embed"

// MigrationsFS embeds the schema migrations so binaries can migrate
// without shipping the SQL files alongside.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
