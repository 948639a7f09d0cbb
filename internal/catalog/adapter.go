package catalog

import (
	"database/sql"
	"fmt"
)

// ForDB creates the catalog provider matching a database/sql driver name.
func ForDB(db *sql.DB, driverName string) (Provider, error) {
	switch driverName {
	case "postgres", "postgresql", "pgx":
		return NewPostgresProvider(db), nil
	case "mysql":
		return NewMySQLProvider(db), nil
	case "sqlite", "sqlite3":
		return NewSQLiteProvider(db), nil
	default:
		return nil, fmt.Errorf("no catalog provider for driver %q", driverName)
	}
}
