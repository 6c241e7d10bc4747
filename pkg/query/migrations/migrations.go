// Package migrations embeds the query service's schema migrations,
// applied by golang-migrate on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
