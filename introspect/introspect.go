package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rafisarkar/ddlphase/schema"
)

// Table reads one table's structure from the live catalog and returns a
// fresh, connection-independent descriptor. Every call takes a new snapshot.
func Table(ctx context.Context, pool *pgxpool.Pool, tableName string) (*schema.Table, error) {
	columns, err := getColumns(ctx, pool, tableName)
	if err != nil {
		return nil, fmt.Errorf("getting columns for table %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q not found", tableName)
	}

	constraints, err := getConstraints(ctx, pool, tableName)
	if err != nil {
		return nil, fmt.Errorf("getting constraints for table %s: %w", tableName, err)
	}

	indexes, err := getIndexes(ctx, pool, tableName)
	if err != nil {
		return nil, fmt.Errorf("getting indexes for table %s: %w", tableName, err)
	}

	return &schema.Table{
		Name:        tableName,
		Columns:     columns,
		Constraints: constraints,
		Indexes:     indexes,
	}, nil
}

// columnsQuery reads pg_attribute directly: format_type keeps type
// modifiers (varchar(255), numeric(10,2), text[]) that
// information_schema.columns.data_type drops, and attnum stays stable
// across dropped columns where ordinal_position renumbers.
const columnsQuery = `
	SELECT
		a.attname AS column_name,
		format_type(a.atttypid, a.atttypmod) AS data_type,
		a.attnotnull AS not_null,
		pg_get_expr(ad.adbin, ad.adrelid) AS column_default,
		(a.attidentity <> '') AS is_identity,
		col_description(a.attrelid, a.attnum) AS comment
	FROM pg_attribute a
	JOIN pg_class c ON c.oid = a.attrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	LEFT JOIN pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
	WHERE n.nspname = 'public' AND c.relname = $1
		AND a.attnum > 0 AND NOT a.attisdropped
	ORDER BY a.attnum;
	`

func getColumns(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]schema.Column, error) {
	rows, err := pool.Query(ctx, columnsQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var identity bool
		if err := rows.Scan(
			&col.Name,
			&col.Type,
			&col.NotNull,
			&col.ServerDefault,
			&identity,
			&col.Comment,
		); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		// Serial and identity columns get a fresh sequence on the target, so
		// the introspected nextval default must not travel with them.
		if identity || IsSerialDefault(col.ServerDefault) {
			col.Autoincrement = true
			col.ServerDefault = nil
		}
		columns = append(columns, col)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating column rows: %w", rows.Err())
	}

	pkColumns, err := getPrimaryKeyColumns(ctx, pool, tableName)
	if err != nil {
		return nil, err
	}
	for i := range columns {
		if pkColumns[columns[i].Name] {
			columns[i].Primary = true
		}
	}

	return columns, nil
}

func getPrimaryKeyColumns(ctx context.Context, pool *pgxpool.Pool, tableName string) (map[string]bool, error) {
	pkQuery := `
	SELECT kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON kcu.constraint_name = tc.constraint_name
		AND kcu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'PRIMARY KEY'
		AND tc.table_schema = 'public'
		AND tc.table_name = $1
	ORDER BY kcu.ordinal_position;
	`

	rows, err := pool.Query(ctx, pkQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying primary key: %w", err)
	}
	defer rows.Close()

	pk := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning primary key column: %w", err)
		}
		pk[name] = true
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating primary key rows: %w", rows.Err())
	}
	return pk, nil
}

func getConstraints(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]schema.Constraint, error) {
	var constraints []schema.Constraint

	foreignKeys, err := getForeignKeys(ctx, pool, tableName)
	if err != nil {
		return nil, err
	}
	constraints = append(constraints, foreignKeys...)

	uniques, err := getUniqueConstraints(ctx, pool, tableName)
	if err != nil {
		return nil, err
	}
	constraints = append(constraints, uniques...)

	checks, err := getCheckConstraints(ctx, pool, tableName)
	if err != nil {
		return nil, err
	}
	constraints = append(constraints, checks...)

	return constraints, nil
}

// foreignKeysQuery pairs local and referenced columns positionally via
// conkey/confkey ordinals. The information_schema join keyed on constraint
// name alone cross-multiplies the columns of composite keys and gives no
// pairing guarantee.
const foreignKeysQuery = `
	SELECT
		con.conname,
		a.attname AS column_name,
		ref.relname AS foreign_table_name,
		ra.attname AS foreign_column_name,
		con.confdeltype::text,
		con.confupdtype::text
	FROM pg_constraint con
	JOIN pg_class c ON c.oid = con.conrelid
	JOIN pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_class ref ON ref.oid = con.confrelid
	JOIN unnest(con.conkey) WITH ORDINALITY k(attnum, ord) ON true
	JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
	JOIN unnest(con.confkey) WITH ORDINALITY fk(attnum, ord) ON fk.ord = k.ord
	JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = fk.attnum
	WHERE con.contype = 'f' AND n.nspname = 'public' AND c.relname = $1
	ORDER BY con.conname, k.ord;
	`

type foreignKeyRow struct {
	Name      string
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string
	OnUpdate  string
}

func getForeignKeys(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]schema.Constraint, error) {
	rows, err := pool.Query(ctx, foreignKeysQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var fkRows []foreignKeyRow
	for rows.Next() {
		var row foreignKeyRow
		if err := rows.Scan(&row.Name, &row.Column, &row.RefTable, &row.RefColumn, &row.OnDelete, &row.OnUpdate); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %w", err)
		}
		fkRows = append(fkRows, row)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating foreign key rows: %w", rows.Err())
	}

	return groupForeignKeys(fkRows), nil
}

// groupForeignKeys folds ordered per-column rows into one constraint per
// name, keeping the local/referenced column pairing intact.
func groupForeignKeys(fkRows []foreignKeyRow) []schema.Constraint {
	var order []string
	byName := map[string]*schema.Constraint{}
	for _, row := range fkRows {
		fk, ok := byName[row.Name]
		if !ok {
			fk = &schema.Constraint{
				Kind:     schema.ForeignKey,
				Name:     row.Name,
				RefTable: row.RefTable,
				OnDelete: referentialAction(row.OnDelete),
				OnUpdate: referentialAction(row.OnUpdate),
			}
			byName[row.Name] = fk
			order = append(order, row.Name)
		}
		fk.Columns = append(fk.Columns, row.Column)
		fk.RefColumns = append(fk.RefColumns, row.RefColumn)
	}

	var foreignKeys []schema.Constraint
	for _, name := range order {
		foreignKeys = append(foreignKeys, *byName[name])
	}
	return foreignKeys
}

func getUniqueConstraints(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]schema.Constraint, error) {
	uniqueQuery := `
	SELECT tc.constraint_name, kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON kcu.constraint_name = tc.constraint_name
		AND kcu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'UNIQUE'
		AND tc.table_schema = 'public'
		AND tc.table_name = $1
	ORDER BY tc.constraint_name, kcu.ordinal_position;
	`

	rows, err := pool.Query(ctx, uniqueQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying unique constraints: %w", err)
	}
	defer rows.Close()

	var order []string
	byName := map[string]*schema.Constraint{}
	for rows.Next() {
		var name, column string
		if err := rows.Scan(&name, &column); err != nil {
			return nil, fmt.Errorf("scanning unique constraint: %w", err)
		}
		uq, ok := byName[name]
		if !ok {
			uq = &schema.Constraint{Kind: schema.Unique, Name: name}
			byName[name] = uq
			order = append(order, name)
		}
		uq.Columns = append(uq.Columns, column)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating unique constraint rows: %w", rows.Err())
	}

	var uniques []schema.Constraint
	for _, name := range order {
		uniques = append(uniques, *byName[name])
	}
	return uniques, nil
}

func getCheckConstraints(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]schema.Constraint, error) {
	// information_schema exposes NOT NULL as synthetic "<col> IS NOT NULL"
	// check constraints; those already travel on the column descriptor.
	checkQuery := `
	SELECT tc.constraint_name, cc.check_clause
	FROM information_schema.table_constraints tc
	JOIN information_schema.check_constraints cc
		ON cc.constraint_name = tc.constraint_name
		AND cc.constraint_schema = tc.table_schema
	WHERE tc.constraint_type = 'CHECK'
		AND tc.table_schema = 'public'
		AND tc.table_name = $1
		AND cc.check_clause NOT LIKE '%IS NOT NULL'
	ORDER BY tc.constraint_name;
	`

	rows, err := pool.Query(ctx, checkQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying check constraints: %w", err)
	}
	defer rows.Close()

	var checks []schema.Constraint
	for rows.Next() {
		var c schema.Constraint
		c.Kind = schema.Check
		if err := rows.Scan(&c.Name, &c.CheckExpr); err != nil {
			return nil, fmt.Errorf("scanning check constraint: %w", err)
		}
		checks = append(checks, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating check constraint rows: %w", rows.Err())
	}
	return checks, nil
}

func getIndexes(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]schema.Index, error) {
	// Indexes owned by a constraint (primary key or unique backing indexes)
	// are excluded: the constraint carries them, and creating both would
	// collide on the index name.
	indexesQuery := `
	SELECT
		i.indexname,
		array_to_string(array_agg(a.attname ORDER BY k.ord), ',') AS column_names,
		idx.indisunique,
		am.amname AS index_type
	FROM pg_indexes i
	JOIN pg_class c ON c.relname = i.indexname
	JOIN pg_index idx ON idx.indexrelid = c.oid
	JOIN unnest(idx.indkey) WITH ORDINALITY k(attnum, ord) ON true
	JOIN pg_attribute a ON a.attrelid = idx.indrelid AND a.attnum = k.attnum
	JOIN pg_am am ON am.oid = c.relam
	WHERE i.tablename = $1 AND i.schemaname = 'public'
		AND NOT EXISTS (SELECT 1 FROM pg_constraint con WHERE con.conindid = c.oid)
	GROUP BY i.indexname, idx.indisunique, am.amname
	ORDER BY i.indexname;
	`

	rows, err := pool.Query(ctx, indexesQuery, tableName)
	if err != nil {
		return nil, fmt.Errorf("querying indexes: %w", err)
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		var columnNames string
		if err := rows.Scan(&idx.Name, &columnNames, &idx.Unique, &idx.Type); err != nil {
			return nil, fmt.Errorf("scanning index: %w", err)
		}
		idx.Columns = SplitIndexColumns(columnNames)
		indexes = append(indexes, idx)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating index rows: %w", rows.Err())
	}
	return indexes, nil
}

// IsSerialDefault reports whether a column default draws from a sequence.
func IsSerialDefault(def *string) bool {
	return def != nil && strings.HasPrefix(strings.ToLower(strings.TrimSpace(*def)), "nextval(")
}

// SplitIndexColumns parses a comma-separated column list from the catalog.
func SplitIndexColumns(columnNames string) []string {
	columns := strings.Split(columnNames, ",")
	for i, col := range columns {
		columns[i] = strings.TrimSpace(col)
	}
	return columns
}

// referentialAction decodes pg_constraint action codes. NO ACTION is the
// default and renders as nothing.
func referentialAction(code string) string {
	switch code {
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	case "r":
		return "RESTRICT"
	default:
		return ""
	}
}
