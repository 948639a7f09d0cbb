package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strconv"
	"strings"
)

// SQLiteProvider reads index definitions via PRAGMA index_list/index_xinfo
// and statistics from sqlite_stat1 (populated by ANALYZE) when present.
type SQLiteProvider struct {
	db *sql.DB
}

// NewSQLiteProvider creates a catalog provider for a SQLite connection.
func NewSQLiteProvider(db *sql.DB) *SQLiteProvider {
	return &SQLiteProvider{db: db}
}

const sqliteTableExistsQuery = `
SELECT COUNT(*)
FROM sqlite_master
WHERE type IN ('table', 'view')
  AND lower(name) = lower(?)`

const sqliteStatTableQuery = `
SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_stat1'`

const sqliteStatQuery = `
SELECT idx, stat FROM sqlite_stat1 WHERE lower(tbl) = lower(?)`

// FetchIndexes implements Provider. SQLite has no schemas, so TableRef.Owner
// is ignored.
func (p *SQLiteProvider) FetchIndexes(ctx context.Context, tables []TableRef) ([]IndexMetadata, error) {
	var out []IndexMetadata
	for _, t := range tables {
		if err := p.checkTable(ctx, t); err != nil {
			return nil, err
		}
		indexes, err := p.tableIndexes(ctx, t)
		if err != nil {
			return nil, mapSQLiteError(err, "fetch indexes", t.String())
		}
		out = append(out, indexes...)
	}
	return out, nil
}

// FetchColumnStatistics implements Provider. Without a prior ANALYZE there is
// no sqlite_stat1 table and every table contributes zero rows, which the
// analyzer treats as unknown selectivity.
func (p *SQLiteProvider) FetchColumnStatistics(ctx context.Context, tables []TableRef) ([]ColumnStatistics, error) {
	var hasStats int
	if err := p.db.QueryRowContext(ctx, sqliteStatTableQuery).Scan(&hasStats); err != nil {
		return nil, mapSQLiteError(err, "fetch column statistics", "")
	}

	var out []ColumnStatistics
	for _, t := range tables {
		if err := p.checkTable(ctx, t); err != nil {
			return nil, err
		}
		if hasStats == 0 {
			continue
		}
		indexes, err := p.tableIndexes(ctx, t)
		if err != nil {
			return nil, mapSQLiteError(err, "fetch column statistics", t.String())
		}
		stats, err := p.tableStatistics(ctx, t, indexes)
		if err != nil {
			return nil, mapSQLiteError(err, "fetch column statistics", t.String())
		}
		out = append(out, stats...)
	}
	return out, nil
}

func (p *SQLiteProvider) checkTable(ctx context.Context, t TableRef) error {
	var count int
	if err := p.db.QueryRowContext(ctx, sqliteTableExistsQuery, t.Name).Scan(&count); err != nil {
		return mapSQLiteError(err, "check table", t.String())
	}
	if count == 0 {
		return metadataErr(ErrTableNotFound, "check table", t.String(), nil)
	}
	return nil
}

func (p *SQLiteProvider) tableIndexes(ctx context.Context, t TableRef) ([]IndexMetadata, error) {
	names, uniques, err := p.indexList(ctx, t)
	if err != nil {
		return nil, err
	}

	out := make([]IndexMetadata, 0, len(names))
	for i, name := range names {
		meta := IndexMetadata{
			Name:   name,
			Table:  t.Name,
			Unique: uniques[i],
			Type:   BTree, // every SQLite index is a b-tree
		}
		if err := p.indexColumns(ctx, &meta); err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

func (p *SQLiteProvider) indexList(ctx context.Context, t TableRef) (names []string, uniques []bool, err error) {
	// PRAGMA arguments cannot be bound, so the identifier is quoted inline.
	rows, err := p.db.QueryContext(ctx, "PRAGMA index_list("+quoteSQLiteIdent(t.Name)+")")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for rows.Next() {
		var (
			seq     int
			name    string
			unique  bool
			origin  string
			partial bool
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, nil, err
		}
		names = append(names, name)
		uniques = append(uniques, unique)
	}
	return names, uniques, rows.Err()
}

func (p *SQLiteProvider) indexColumns(ctx context.Context, meta *IndexMetadata) (err error) {
	rows, err := p.db.QueryContext(ctx, "PRAGMA index_xinfo("+quoteSQLiteIdent(meta.Name)+")")
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
			descending bool
			collation  string
			key        bool
		)
		if err := rows.Scan(&seqno, &cid, &name, &descending, &collation, &key); err != nil {
			return err
		}
		if !key {
			continue // trailing rowid/included columns
		}
		// cid -2 marks an expression key.
		if cid == -2 || !name.Valid {
			meta.Type = FunctionBased
			continue
		}
		meta.Columns = append(meta.Columns, IndexColumn{Name: name.String, Descending: descending})
	}
	return rows.Err()
}

// tableStatistics derives per-column distinct counts from sqlite_stat1 rows.
// A stat line "N n1 n2 ..." means the index has N rows and the k-column
// prefix selects about nk rows per value, so distinct(prefix k) ~ N/nk.
func (p *SQLiteProvider) tableStatistics(ctx context.Context, t TableRef, indexes []IndexMetadata) (_ []ColumnStatistics, err error) {
	rows, err := p.db.QueryContext(ctx, sqliteStatQuery, t.Name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	columnsByIndex := make(map[string][]string, len(indexes))
	for _, idx := range indexes {
		columnsByIndex[strings.ToLower(idx.Name)] = idx.ColumnNames()
	}

	distinct := make(map[string]int64)
	var order []string
	for rows.Next() {
		var idx sql.NullString
		var stat string
		if err := rows.Scan(&idx, &stat); err != nil {
			return nil, err
		}
		if !idx.Valid {
			continue
		}
		columns := columnsByIndex[strings.ToLower(idx.String)]
		for column, count := range parseStat1(stat, columns) {
			if prev, ok := distinct[column]; !ok || count > prev {
				if !ok {
					order = append(order, column)
				}
				distinct[column] = count
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]ColumnStatistics, 0, len(order))
	for _, column := range order {
		out = append(out, ColumnStatistics{
			Table:         t.Name,
			Column:        column,
			DistinctCount: distinct[column],
			NullFraction:  StatUnknown,
			AvgLength:     StatUnknown,
		})
	}
	return out, nil
}

func parseStat1(stat string, columns []string) map[string]int64 {
	fields := strings.Fields(stat)
	if len(fields) < 2 {
		return nil
	}
	rowCount, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || rowCount <= 0 {
		return nil
	}

	out := make(map[string]int64)
	for i, column := range columns {
		if i+1 >= len(fields) {
			break
		}
		perValue, err := strconv.ParseInt(fields[i+1], 10, 64)
		if err != nil || perValue <= 0 {
			continue
		}
		out[column] = rowCount / perValue
	}
	return out
}

func quoteSQLiteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// mapSQLiteError translates driver failures onto the metadata taxonomy.
// SQLite drivers expose errors as text, so matching is by message.
func mapSQLiteError(err error, op, table string) error {
	if errors.Is(err, driver.ErrBadConn) {
		return metadataErr(ErrConnectionUnavailable, op, table, err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return metadataErr(ErrTableNotFound, op, table, err)
	case strings.Contains(msg, "access") || strings.Contains(msg, "authoriz"):
		return metadataErr(ErrAccessDenied, op, table, err)
	default:
		return metadataErr(ErrConnectionUnavailable, op, table, err)
	}
}
