package schema

import "fmt"

// Table is a connection-independent snapshot of one table's structure.
// It is built once per extraction and never mutated afterwards.
type Table struct {
	Name        string
	Columns     []Column
	Constraints []Constraint
	Indexes     []Index
}

type Column struct {
	Name          string
	Type          string
	Primary       bool
	NotNull       bool
	Autoincrement bool
	Default       *string
	ServerDefault *string
	Comment       *string
}

// Constraint covers table-level constraints. Foreign-key references live
// here, never on the Column itself, so the base CREATE TABLE can be rendered
// without touching them.
type Constraint struct {
	Kind       ConstraintKind
	Name       string
	Columns    []string
	RefTable   string   // foreign key only
	RefColumns []string // foreign key only
	OnDelete   string   // CASCADE, SET NULL, RESTRICT, ...
	OnUpdate   string
	CheckExpr  string // check only
}

type Index struct {
	Name    string
	Columns []string
	Unique  bool
	Type    string // btree, hash, gin, etc.
}

type ConstraintKind string

const (
	PrimaryKey ConstraintKind = "PRIMARY KEY"
	ForeignKey ConstraintKind = "FOREIGN KEY"
	Unique     ConstraintKind = "UNIQUE"
	Check      ConstraintKind = "CHECK"
)

// ParseConstraintKind maps an information_schema constraint_type to a kind.
func ParseConstraintKind(s string) (ConstraintKind, error) {
	switch ConstraintKind(s) {
	case PrimaryKey, ForeignKey, Unique, Check:
		return ConstraintKind(s), nil
	default:
		return "", fmt.Errorf("unknown constraint type %q", s)
	}
}

// PrimaryKeyColumns returns the names of the primary-key columns in
// definition order.
func (t *Table) PrimaryKeyColumns() []string {
	var cols []string
	for _, c := range t.Columns {
		if c.Primary {
			cols = append(cols, c.Name)
		}
	}
	return cols
}
