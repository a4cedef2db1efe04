// Package migrations holds the Postgres schema for the leads table.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
