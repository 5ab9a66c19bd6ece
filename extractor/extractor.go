package extractor

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rafisarkar/ddlphase/introspect"
	"github.com/rafisarkar/ddlphase/phase"
	"github.com/rafisarkar/ddlphase/render"
	"github.com/rafisarkar/ddlphase/schema"
)

// Extractor turns live tables into phased DDL text. Each call takes a fresh
// catalog snapshot, so concurrent schema changes between calls are the
// caller's problem, not stale state.
type Extractor struct {
	pool     *pgxpool.Pool
	renderer *render.Renderer
}

func New(pool *pgxpool.Pool, dialect render.Dialect) *Extractor {
	return &Extractor{
		pool:     pool,
		renderer: render.NewRenderer(dialect),
	}
}

// TableBaseDDL returns one CREATE TABLE statement with columns only: no
// foreign keys, no secondary indexes. Suitable for fast bulk loading.
func (e *Extractor) TableBaseDDL(ctx context.Context, tableName string) (string, error) {
	plan, err := e.plan(ctx, tableName)
	if err != nil {
		return "", err
	}
	return e.renderer.BaseDDL(plan)
}

// ConstraintsAndIndexesDDL returns the deferred statements to apply after
// data load: one ALTER TABLE per non-primary-key constraint, one CREATE
// INDEX per index. Primary keys are excluded; they live in the base DDL.
func (e *Extractor) ConstraintsAndIndexesDDL(ctx context.Context, tableName string) ([]string, error) {
	plan, err := e.plan(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return e.renderer.DeferredDDL(plan)
}

// Describe exposes the raw snapshot for callers that need the descriptor
// itself, e.g. post-apply verification.
func (e *Extractor) Describe(ctx context.Context, tableName string) (*schema.Table, error) {
	return introspect.Table(ctx, e.pool, tableName)
}

func (e *Extractor) plan(ctx context.Context, tableName string) (*phase.Plan, error) {
	table, err := introspect.Table(ctx, e.pool, tableName)
	if err != nil {
		return nil, err
	}
	return phase.Split(table)
}
