package render

import (
	"fmt"
	"strings"

	"github.com/rafisarkar/ddlphase/phase"
	"github.com/rafisarkar/ddlphase/schema"
)

// Dialect compiles descriptors into statement text for one SQL variant.
// Implementations must be deterministic: same input, same bytes.
type Dialect interface {
	CreateTable(table string, cols []schema.Column) (string, error)
	AddConstraint(table string, c schema.Constraint) (string, error)
	CreateIndex(table string, idx schema.Index) (string, error)
}

// RenderError reports a descriptor the target dialect cannot express.
// It is fatal for the table; retrying will not help.
type RenderError struct {
	Table string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering DDL for table %q: %v", e.Table, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer turns a split plan into terminated, independently executable
// statements.
type Renderer struct {
	dialect Dialect
}

func NewRenderer(d Dialect) *Renderer {
	return &Renderer{dialect: d}
}

// BaseDDL renders the plan's base phase as exactly one CREATE TABLE
// statement.
func (r *Renderer) BaseDDL(plan *phase.Plan) (string, error) {
	stmt, err := r.dialect.CreateTable(plan.TableName, plan.BaseColumns)
	if err != nil {
		return "", &RenderError{Table: plan.TableName, Err: err}
	}
	stmt, err = terminate(stmt)
	if err != nil {
		return "", &RenderError{Table: plan.TableName, Err: err}
	}
	return stmt, nil
}

// DeferredDDL renders one statement per deferred operation, in plan order.
// A plan with no deferred operations yields an empty slice.
func (r *Renderer) DeferredDDL(plan *phase.Plan) ([]string, error) {
	var stmts []string
	for _, op := range plan.Deferred {
		var stmt string
		var err error
		switch op.Type {
		case phase.AddConstraint:
			stmt, err = r.dialect.AddConstraint(plan.TableName, *op.Constraint)
		case phase.CreateIndex:
			stmt, err = r.dialect.CreateIndex(plan.TableName, *op.Index)
		default:
			err = fmt.Errorf("unknown operation type %q", op.Type)
		}
		if err != nil {
			return nil, &RenderError{Table: plan.TableName, Err: err}
		}
		stmt, err = terminate(stmt)
		if err != nil {
			return nil, &RenderError{Table: plan.TableName, Err: err}
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// terminate normalizes a statement to a single trailing terminator and
// rejects blank output.
func terminate(stmt string) (string, error) {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return "", fmt.Errorf("dialect produced a blank statement")
	}
	return strings.TrimRight(stmt, ";") + ";", nil
}
