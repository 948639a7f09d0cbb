// Package dialects provides database-specific SQL dialect implementations
// for PostgreSQL, MySQL, and SQLite, handling identifier quoting and
// placeholders for generated DDL and catalog queries.
package dialects

// Dialect defines database-specific behaviors.
type Dialect interface {
	QuoteIdentifier(string) string
	Placeholder(int) string
}

var dialects = make(map[string]Dialect)

// RegisterDialect registers a database dialect by driver name.
func RegisterDialect(name string, d Dialect) {
	dialects[name] = d
}

// GetDialect retrieves a registered dialect by driver name, panics if not found.
func GetDialect(name string) Dialect {
	if d, ok := dialects[name]; ok {
		return d
	}
	panic("unsupported dialect: " + name)
}

// LookupDialect retrieves a registered dialect, falling back to a neutral
// dialect with bare identifiers. Generated DDL is descriptive output, so an
// unknown driver name degrades gracefully instead of panicking.
func LookupDialect(name string) Dialect {
	if d, ok := dialects[name]; ok {
		return d
	}
	return DefaultDialect{}
}

// DefaultDialect leaves identifiers unquoted and uses "?" placeholders.
type DefaultDialect struct{}

// QuoteIdentifier returns the identifier unchanged.
func (DefaultDialect) QuoteIdentifier(s string) string { return s }

// Placeholder returns the generic "?" placeholder.
func (DefaultDialect) Placeholder(int) string { return "?" }
