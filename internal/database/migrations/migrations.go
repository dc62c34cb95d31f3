// Package migrations holds the goose SQL migrations for the examhub schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
