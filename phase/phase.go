package phase

import (
	"fmt"
	"sort"

	"github.com/rafisarkar/ddlphase/schema"
)

type OperationType string

const (
	AddConstraint OperationType = "ADD_CONSTRAINT"
	CreateIndex   OperationType = "CREATE_INDEX"
)

// Operation is one deferred DDL action: add a constraint or create an index
// on the already-created base table.
type Operation struct {
	Type       OperationType
	Constraint *schema.Constraint // for ADD_CONSTRAINT
	Index      *schema.Index      // for CREATE_INDEX
}

// Plan is the result of splitting a table: the column-only base shape and
// the ordered list of deferred operations.
type Plan struct {
	TableName   string
	BaseColumns []schema.Column
	Deferred    []Operation
}

// UnsupportedConstraintKindError reports a constraint kind the splitter has
// no classification rule for.
type UnsupportedConstraintKindError struct {
	Table string
	Kind  schema.ConstraintKind
}

func (e *UnsupportedConstraintKindError) Error() string {
	return fmt.Sprintf("table %q: unsupported constraint kind %q", e.Table, e.Kind)
}

// Split classifies every structural element of a table into the base phase
// or the deferred phase. It is pure: the input table is never modified and
// the plan holds copies, not aliases.
//
// Rules:
//   - every column goes to the base phase with its primary-key, nullability,
//     type, default and autoincrement attributes unchanged
//   - primary-key constraints are already carried by the column flags and are
//     emitted in neither phase
//   - a unique constraint whose columns equal the primary key is dropped: the
//     inline primary key already enforces it
//   - every other foreign-key, unique and check constraint is deferred
//   - every index is deferred
func Split(t *schema.Table) (*Plan, error) {
	plan := &Plan{
		TableName:   t.Name,
		BaseColumns: append([]schema.Column(nil), t.Columns...),
	}

	pk := t.PrimaryKeyColumns()

	for i := range t.Constraints {
		c := t.Constraints[i]
		switch c.Kind {
		case schema.PrimaryKey:
			// Carried inline by the column flags in the base phase.
			continue
		case schema.Unique:
			if sameColumnSet(c.Columns, pk) {
				continue
			}
		case schema.ForeignKey, schema.Check:
		default:
			return nil, &UnsupportedConstraintKindError{Table: t.Name, Kind: c.Kind}
		}
		cc := c
		plan.Deferred = append(plan.Deferred, Operation{
			Type:       AddConstraint,
			Constraint: &cc,
		})
	}

	for i := range t.Indexes {
		idx := t.Indexes[i]
		plan.Deferred = append(plan.Deferred, Operation{
			Type:  CreateIndex,
			Index: &idx,
		})
	}

	return plan, nil
}

func sameColumnSet(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
