// Package migrations registers the intelligence core's schema migrations
// with bun/migrate, one file per migration calling Migrations.MustRegister
// from its own init function so ordering matches file naming.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry every migration file appends to via
// Migrations.MustRegister in its init function.
var Migrations = migrate.NewMigrations()
