package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/lib/pq"
)

// PostgresProvider reads index definitions from pg_catalog and column
// statistics from pg_stats.
type PostgresProvider struct {
	db *sql.DB
}

// NewPostgresProvider creates a catalog provider for a PostgreSQL connection.
func NewPostgresProvider(db *sql.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

const pgTableExistsQuery = `
SELECT EXISTS (
    SELECT 1
    FROM pg_catalog.pg_class c
    JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
    WHERE c.relname = $1
      AND c.relkind IN ('r', 'p', 'm')
      AND ($2 = '' OR n.nspname = $2)
)`

const pgIndexQuery = `
SELECT ic.relname                        AS index_name,
       n.nspname                         AS owner,
       c.relname                         AS table_name,
       ix.indisunique                    AS is_unique,
       am.amname                         AS method,
       ic.relpages                       AS leaf_pages,
       k.attnum                          AS attnum,
       COALESCE(a.attname, '')           AS column_name,
       (ix.indoption[k.ord - 1] & 1) = 1 AS descending
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
JOIN pg_catalog.pg_index ix ON ix.indrelid = c.oid
JOIN pg_catalog.pg_class ic ON ic.oid = ix.indexrelid
JOIN pg_catalog.pg_am am ON am.oid = ic.relam
JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON TRUE
LEFT JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
WHERE c.relname = $1
  AND ($2 = '' OR n.nspname = $2)
ORDER BY ic.relname, k.ord`

const pgStatsQuery = `
SELECT attname, n_distinct, null_frac, avg_width
FROM pg_stats
WHERE tablename = $1
  AND ($2 = '' OR schemaname = $2)`

// FetchIndexes implements Provider.
func (p *PostgresProvider) FetchIndexes(ctx context.Context, tables []TableRef) ([]IndexMetadata, error) {
	var out []IndexMetadata
	for _, t := range tables {
		if err := p.checkTable(ctx, t); err != nil {
			return nil, err
		}
		indexes, err := p.tableIndexes(ctx, t)
		if err != nil {
			return nil, mapPostgresError(err, "fetch indexes", t.String())
		}
		out = append(out, indexes...)
	}
	return out, nil
}

// FetchColumnStatistics implements Provider.
func (p *PostgresProvider) FetchColumnStatistics(ctx context.Context, tables []TableRef) ([]ColumnStatistics, error) {
	var out []ColumnStatistics
	for _, t := range tables {
		if err := p.checkTable(ctx, t); err != nil {
			return nil, err
		}
		rows, err := p.db.QueryContext(ctx, pgStatsQuery, t.Name, t.Owner)
		if err != nil {
			return nil, mapPostgresError(err, "fetch column statistics", t.String())
		}
		stats, err := scanPostgresStats(rows, t.Name)
		if err != nil {
			return nil, mapPostgresError(err, "fetch column statistics", t.String())
		}
		out = append(out, stats...)
	}
	return out, nil
}

func (p *PostgresProvider) checkTable(ctx context.Context, t TableRef) error {
	var exists bool
	if err := p.db.QueryRowContext(ctx, pgTableExistsQuery, t.Name, t.Owner).Scan(&exists); err != nil {
		return mapPostgresError(err, "check table", t.String())
	}
	if !exists {
		return metadataErr(ErrTableNotFound, "check table", t.String(), nil)
	}
	return nil
}

func (p *PostgresProvider) tableIndexes(ctx context.Context, t TableRef) (_ []IndexMetadata, err error) {
	rows, err := p.db.QueryContext(ctx, pgIndexQuery, t.Name, t.Owner)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var out []IndexMetadata
	var current *IndexMetadata
	for rows.Next() {
		var (
			indexName, owner, tableName, method, columnName string
			unique, descending                              bool
			leafPages                                       int64
			attnum                                          int
		)
		if err := rows.Scan(&indexName, &owner, &tableName, &unique, &method,
			&leafPages, &attnum, &columnName, &descending); err != nil {
			return nil, err
		}

		if current == nil || current.Name != indexName {
			out = append(out, IndexMetadata{
				Name:       indexName,
				Owner:      owner,
				Table:      tableName,
				Unique:     unique,
				Type:       postgresIndexType(method),
				LeafBlocks: leafPages,
			})
			current = &out[len(out)-1]
		}
		// attnum 0 means the key is an expression, not a plain column.
		if attnum == 0 {
			current.Type = FunctionBased
			continue
		}
		current.Columns = append(current.Columns, IndexColumn{Name: columnName, Descending: descending})
	}
	return out, rows.Err()
}

func scanPostgresStats(rows *sql.Rows, table string) (_ []ColumnStatistics, err error) {
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var out []ColumnStatistics
	for rows.Next() {
		var (
			column    string
			nDistinct float64
			nullFrac  float64
			avgWidth  int64
		)
		if err := rows.Scan(&column, &nDistinct, &nullFrac, &avgWidth); err != nil {
			return nil, err
		}
		stat := ColumnStatistics{
			Table:         table,
			Column:        column,
			NullFraction:  nullFrac,
			AvgLength:     avgWidth,
			DistinctCount: StatUnknown,
		}
		// Negative n_distinct is a ratio of the (unknown here) row count;
		// treat it as unknown rather than guessing.
		if nDistinct >= 0 {
			stat.DistinctCount = int64(nDistinct)
		}
		out = append(out, stat)
	}
	return out, rows.Err()
}

func postgresIndexType(method string) IndexType {
	if method == "btree" {
		return BTree
	}
	return OtherIndexType
}

// mapPostgresError translates driver failures onto the metadata taxonomy.
func mapPostgresError(err error, op, table string) error {
	if errors.Is(err, driver.ErrBadConn) {
		return metadataErr(ErrConnectionUnavailable, op, table, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42501": // insufficient_privilege
			return metadataErr(ErrAccessDenied, op, table, err)
		case "42P01": // undefined_table
			return metadataErr(ErrTableNotFound, op, table, err)
		case "3D000", "08000", "08003", "08006", "57P01", "57P02", "57P03":
			return metadataErr(ErrConnectionUnavailable, op, table, err)
		}
	}
	return metadataErr(ErrConnectionUnavailable, op, table, err)
}
