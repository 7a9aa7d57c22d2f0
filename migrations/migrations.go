// Package migrations embeds the database schema migrations applied at
// service startup.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
