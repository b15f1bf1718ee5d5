// Package migrations embeds the goose SQL migrations of the blog backend.
package migrations

import "embed"

// FS holds every *.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
