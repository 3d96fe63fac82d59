package database

import "embed"

// MigrationsFS содержит встроенные SQL-миграции схемы.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsPath - путь к миграциям внутри MigrationsFS.
const MigrationsPath = "migrations"
