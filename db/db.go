// Package db embeds the SQL migrations of the GhostSwitch schema.
package db

import "embed"

// Migrations holds db/migrations/*.sql for golang-migrate's iofs source.
//
//go:embed migrations/*.sql
var Migrations embed.FS
