package render

import (
	"fmt"
	"strings"

	"github.com/rafisarkar/ddlphase/schema"
)

// Postgres compiles descriptors into PostgreSQL DDL.
type Postgres struct{}

func (Postgres) CreateTable(table string, cols []schema.Column) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("table %q has no columns", table)
	}

	pk := 0
	for _, col := range cols {
		if col.Primary {
			pk++
		}
	}

	stmt := fmt.Sprintf(`CREATE TABLE %s (`, quoteIdent(table))
	for i, col := range cols {
		def, err := columnDef(col, pk == 1)
		if err != nil {
			return "", err
		}
		if i > 0 {
			stmt += ", "
		}
		stmt += def
	}

	// Composite keys cannot be expressed on a single column; emit a
	// table-level clause instead.
	if pk > 1 {
		var names []string
		for _, col := range cols {
			if col.Primary {
				names = append(names, quoteIdent(col.Name))
			}
		}
		stmt += fmt.Sprintf(", PRIMARY KEY (%s)", strings.Join(names, ", "))
	}

	return stmt + ");", nil
}

func columnDef(col schema.Column, inlinePK bool) (string, error) {
	typ, err := columnType(col)
	if err != nil {
		return "", err
	}

	def := fmt.Sprintf(`%s %s`, quoteIdent(col.Name), typ)
	if col.Primary && inlinePK {
		def += " PRIMARY KEY"
	}
	if col.NotNull && !(col.Primary && inlinePK) {
		def += " NOT NULL"
	}
	if expr := defaultExpr(col); expr != "" {
		def += fmt.Sprintf(" DEFAULT %s", expr)
	}
	return def, nil
}

// columnType maps autoincrement integer columns onto the serial pseudo
// types so the target gets its own sequence.
func columnType(col schema.Column) (string, error) {
	if col.Type == "" {
		return "", fmt.Errorf("column %q has no type", col.Name)
	}
	if !col.Autoincrement {
		return col.Type, nil
	}
	switch strings.ToLower(col.Type) {
	case "smallint", "int2", "smallserial":
		return "smallserial", nil
	case "integer", "int", "int4", "serial":
		return "serial", nil
	case "bigint", "int8", "bigserial":
		return "bigserial", nil
	default:
		return "", fmt.Errorf("column %q: type %q cannot autoincrement", col.Name, col.Type)
	}
}

func defaultExpr(col schema.Column) string {
	if col.Autoincrement {
		// The serial type owns the default.
		return ""
	}
	if col.ServerDefault != nil {
		return *col.ServerDefault
	}
	if col.Default != nil {
		return *col.Default
	}
	return ""
}

func (Postgres) AddConstraint(table string, c schema.Constraint) (string, error) {
	switch c.Kind {
	case schema.ForeignKey:
		if c.RefTable == "" || len(c.Columns) == 0 || len(c.RefColumns) == 0 {
			return "", fmt.Errorf("foreign key on %q is missing columns or references", table)
		}
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("fk_%s_%s", table, c.RefTable)
		}
		stmt := fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)`,
			quoteIdent(table),
			quoteIdent(name),
			quoteIdents(c.Columns),
			quoteIdent(c.RefTable),
			quoteIdents(c.RefColumns),
		)
		if c.OnDelete != "" {
			stmt += fmt.Sprintf(" ON DELETE %s", c.OnDelete)
		}
		if c.OnUpdate != "" {
			stmt += fmt.Sprintf(" ON UPDATE %s", c.OnUpdate)
		}
		return stmt + ";", nil

	case schema.Unique:
		if len(c.Columns) == 0 {
			return "", fmt.Errorf("unique constraint on %q has no columns", table)
		}
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("uq_%s_%s", table, strings.Join(c.Columns, "_"))
		}
		return fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);`,
			quoteIdent(table),
			quoteIdent(name),
			quoteIdents(c.Columns),
		), nil

	case schema.Check:
		if c.CheckExpr == "" {
			return "", fmt.Errorf("check constraint %q on %q has no expression", c.Name, table)
		}
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("ck_%s", table)
		}
		return fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);`,
			quoteIdent(table),
			quoteIdent(name),
			c.CheckExpr,
		), nil

	case schema.PrimaryKey:
		return "", fmt.Errorf("primary key on %q is rendered inline, not as a standalone constraint", table)

	default:
		return "", fmt.Errorf("cannot compile constraint kind %q", c.Kind)
	}
}

func (Postgres) CreateIndex(table string, idx schema.Index) (string, error) {
	if len(idx.Columns) == 0 {
		return "", fmt.Errorf("index %q on %q has no columns", idx.Name, table)
	}

	stmt := "CREATE"
	if idx.Unique {
		stmt += " UNIQUE"
	}
	stmt += " INDEX"

	name := idx.Name
	if name == "" {
		name = fmt.Sprintf("idx_%s_%s", table, strings.Join(idx.Columns, "_"))
	}
	stmt += " " + quoteIdent(name)
	stmt += fmt.Sprintf(" ON %s", quoteIdent(table))

	if idx.Type != "" && idx.Type != "btree" {
		stmt += fmt.Sprintf(" USING %s", idx.Type)
	}

	return stmt + fmt.Sprintf(" (%s);", quoteIdents(idx.Columns)), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
