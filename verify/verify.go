package verify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rafisarkar/ddlphase/phase"
)

// Finding is one missing object on the target.
type Finding struct {
	Kind    string // "table", "constraint", "index"
	Name    string
	Message string
}

// Result reports whether everything a plan describes exists on the target.
type Result struct {
	OK      bool
	Missing []Finding
}

// Verifier checks a target database against a split plan, typically after
// both phases were applied.
type Verifier struct {
	pool *pgxpool.Pool
}

func NewVerifier(pool *pgxpool.Pool) *Verifier {
	return &Verifier{pool: pool}
}

// VerifyPlan confirms the base table plus every deferred constraint and
// index exists on the target.
func (v *Verifier) VerifyPlan(ctx context.Context, plan *phase.Plan) (*Result, error) {
	result := &Result{OK: true}

	exists, err := v.tableExists(ctx, plan.TableName)
	if err != nil {
		return nil, err
	}
	if !exists {
		result.OK = false
		result.Missing = append(result.Missing, Finding{
			Kind:    "table",
			Name:    plan.TableName,
			Message: fmt.Sprintf("table %q does not exist on the target", plan.TableName),
		})
		return result, nil
	}

	for _, op := range plan.Deferred {
		switch op.Type {
		case phase.AddConstraint:
			ok, err := v.constraintExists(ctx, plan.TableName, op.Constraint.Name)
			if err != nil {
				return nil, err
			}
			if !ok {
				result.OK = false
				result.Missing = append(result.Missing, Finding{
					Kind:    "constraint",
					Name:    op.Constraint.Name,
					Message: fmt.Sprintf("constraint %q missing on table %q", op.Constraint.Name, plan.TableName),
				})
			}
		case phase.CreateIndex:
			ok, err := v.indexExists(ctx, plan.TableName, op.Index.Name)
			if err != nil {
				return nil, err
			}
			if !ok {
				result.OK = false
				result.Missing = append(result.Missing, Finding{
					Kind:    "index",
					Name:    op.Index.Name,
					Message: fmt.Sprintf("index %q missing on table %q", op.Index.Name, plan.TableName),
				})
			}
		}
	}

	return result, nil
}

func (v *Verifier) tableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	query := `
	SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	);
	`
	if err := v.pool.QueryRow(ctx, query, tableName).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking table %s: %w", tableName, err)
	}
	return exists, nil
}

func (v *Verifier) constraintExists(ctx context.Context, tableName, constraintName string) (bool, error) {
	var exists bool
	query := `
	SELECT EXISTS (
		SELECT FROM information_schema.table_constraints
		WHERE table_schema = 'public' AND table_name = $1 AND constraint_name = $2
	);
	`
	if err := v.pool.QueryRow(ctx, query, tableName, constraintName).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking constraint %s: %w", constraintName, err)
	}
	return exists, nil
}

func (v *Verifier) indexExists(ctx context.Context, tableName, indexName string) (bool, error) {
	var exists bool
	query := `
	SELECT EXISTS (
		SELECT FROM pg_indexes
		WHERE schemaname = 'public' AND tablename = $1 AND indexname = $2
	);
	`
	if err := v.pool.QueryRow(ctx, query, tableName, indexName).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking index %s: %w", indexName, err)
	}
	return exists, nil
}
