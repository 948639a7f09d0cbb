package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQLProvider reads index definitions and what statistics MySQL exposes
// from information_schema. MySQL only tracks cardinality for indexed
// columns, so statistics for unindexed columns come back as unknown.
type MySQLProvider struct {
	db *sql.DB
}

// NewMySQLProvider creates a catalog provider for a MySQL connection.
func NewMySQLProvider(db *sql.DB) *MySQLProvider {
	return &MySQLProvider{db: db}
}

const mysqlTableExistsQuery = `
SELECT COUNT(*)
FROM information_schema.tables
WHERE table_name = ?
  AND table_schema = COALESCE(NULLIF(?, ''), DATABASE())`

const mysqlIndexQuery = `
SELECT index_name,
       table_schema,
       table_name,
       non_unique,
       index_type,
       seq_in_index,
       column_name,
       COALESCE(collation, 'A'),
       COALESCE(cardinality, -1)
FROM information_schema.statistics
WHERE table_name = ?
  AND table_schema = COALESCE(NULLIF(?, ''), DATABASE())
ORDER BY index_name, seq_in_index`

const mysqlAvgLengthQuery = `
SELECT column_name, COALESCE(character_octet_length, -1)
FROM information_schema.columns
WHERE table_name = ?
  AND table_schema = COALESCE(NULLIF(?, ''), DATABASE())`

// FetchIndexes implements Provider.
func (p *MySQLProvider) FetchIndexes(ctx context.Context, tables []TableRef) ([]IndexMetadata, error) {
	var out []IndexMetadata
	for _, t := range tables {
		if err := p.checkTable(ctx, t); err != nil {
			return nil, err
		}
		indexes, _, err := p.tableIndexes(ctx, t)
		if err != nil {
			return nil, mapMySQLError(err, "fetch indexes", t.String())
		}
		out = append(out, indexes...)
	}
	return out, nil
}

// FetchColumnStatistics implements Provider. Cardinality comes from
// information_schema.statistics, so only indexed columns contribute; null
// fractions are not tracked by MySQL and stay unknown.
func (p *MySQLProvider) FetchColumnStatistics(ctx context.Context, tables []TableRef) ([]ColumnStatistics, error) {
	var out []ColumnStatistics
	for _, t := range tables {
		if err := p.checkTable(ctx, t); err != nil {
			return nil, err
		}
		_, cardinality, err := p.tableIndexes(ctx, t)
		if err != nil {
			return nil, mapMySQLError(err, "fetch column statistics", t.String())
		}
		lengths, err := p.columnLengths(ctx, t)
		if err != nil {
			return nil, mapMySQLError(err, "fetch column statistics", t.String())
		}
		for column, distinct := range cardinality {
			stat := ColumnStatistics{
				Table:         t.Name,
				Column:        column,
				DistinctCount: distinct,
				NullFraction:  StatUnknown,
				AvgLength:     StatUnknown,
			}
			if length, ok := lengths[column]; ok {
				stat.AvgLength = length
			}
			out = append(out, stat)
		}
	}
	return out, nil
}

func (p *MySQLProvider) checkTable(ctx context.Context, t TableRef) error {
	var count int
	if err := p.db.QueryRowContext(ctx, mysqlTableExistsQuery, t.Name, t.Owner).Scan(&count); err != nil {
		return mapMySQLError(err, "check table", t.String())
	}
	if count == 0 {
		return metadataErr(ErrTableNotFound, "check table", t.String(), nil)
	}
	return nil
}

// tableIndexes returns the table's indexes plus the best cardinality seen
// per indexed column (the distinct-count estimate MySQL maintains).
func (p *MySQLProvider) tableIndexes(ctx context.Context, t TableRef) (_ []IndexMetadata, _ map[string]int64, err error) {
	rows, err := p.db.QueryContext(ctx, mysqlIndexQuery, t.Name, t.Owner)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var out []IndexMetadata
	cardinality := make(map[string]int64)
	var current *IndexMetadata
	for rows.Next() {
		var (
			indexName, owner, tableName, indexType, collation string
			columnName                                        sql.NullString
			nonUnique, seq, columnCardinality                 int64
		)
		if err := rows.Scan(&indexName, &owner, &tableName, &nonUnique,
			&indexType, &seq, &columnName, &collation, &columnCardinality); err != nil {
			return nil, nil, err
		}

		if current == nil || current.Name != indexName {
			out = append(out, IndexMetadata{
				Name:   indexName,
				Owner:  owner,
				Table:  tableName,
				Unique: nonUnique == 0,
				Type:   mysqlIndexType(indexType),
			})
			current = &out[len(out)-1]
		}
		// A NULL column name means a functional index part (MySQL 8).
		if !columnName.Valid {
			current.Type = FunctionBased
			continue
		}
		current.Columns = append(current.Columns, IndexColumn{
			Name:       columnName.String,
			Descending: collation == "D",
		})
		if columnCardinality >= 0 && columnCardinality > cardinality[columnName.String] {
			cardinality[columnName.String] = columnCardinality
		}
	}
	return out, cardinality, rows.Err()
}

func (p *MySQLProvider) columnLengths(ctx context.Context, t TableRef) (_ map[string]int64, err error) {
	rows, err := p.db.QueryContext(ctx, mysqlAvgLengthQuery, t.Name, t.Owner)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	lengths := make(map[string]int64)
	for rows.Next() {
		var column string
		var length int64
		if err := rows.Scan(&column, &length); err != nil {
			return nil, err
		}
		if length >= 0 {
			lengths[column] = length
		}
	}
	return lengths, rows.Err()
}

func mysqlIndexType(indexType string) IndexType {
	switch indexType {
	case "BTREE":
		return BTree
	default:
		return OtherIndexType
	}
}

// mapMySQLError translates driver failures onto the metadata taxonomy.
func mapMySQLError(err error, op, table string) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return metadataErr(ErrConnectionUnavailable, op, table, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1045, 1142, 1143, 1227: // access denied variants
			return metadataErr(ErrAccessDenied, op, table, err)
		case 1109, 1146: // unknown table
			return metadataErr(ErrTableNotFound, op, table, err)
		}
	}
	return metadataErr(ErrConnectionUnavailable, op, table, err)
}
