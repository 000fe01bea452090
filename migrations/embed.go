// Package migrations embeds the warehouse schema migrations so the binary
// can bootstrap a database without shipping loose SQL files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
