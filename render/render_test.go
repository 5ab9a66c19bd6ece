package render

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rafisarkar/ddlphase/phase"
	"github.com/rafisarkar/ddlphase/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersPlan(t *testing.T) *phase.Plan {
	t.Helper()
	zero := "0"
	table := &schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: "integer", Primary: true, NotNull: true, Autoincrement: true},
			{Name: "customer_id", Type: "integer"},
			{Name: "total", Type: "numeric", NotNull: true, ServerDefault: &zero},
		},
		Constraints: []schema.Constraint{
			{Kind: schema.PrimaryKey, Name: "orders_pkey", Columns: []string{"id"}},
			{
				Kind:       schema.ForeignKey,
				Name:       "orders_customer_id_fkey",
				Columns:    []string{"customer_id"},
				RefTable:   "customers",
				RefColumns: []string{"id"},
			},
			{Kind: schema.Unique, Name: "orders_id_key", Columns: []string{"id"}},
		},
		Indexes: []schema.Index{
			{Name: "idx_orders_customer_id", Columns: []string{"customer_id"}, Type: "btree"},
		},
	}
	plan, err := phase.Split(table)
	require.NoError(t, err)
	return plan
}

func TestOrdersEndToEnd(t *testing.T) {
	r := NewRenderer(Postgres{})
	plan := ordersPlan(t)

	base, err := r.BaseDDL(plan)
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE TABLE "orders" ("id" serial PRIMARY KEY, "customer_id" integer, "total" numeric NOT NULL DEFAULT 0);`,
		base,
	)

	deferred, err := r.DeferredDDL(plan)
	require.NoError(t, err)
	require.Len(t, deferred, 2)
	assert.Equal(t,
		`ALTER TABLE "orders" ADD CONSTRAINT "orders_customer_id_fkey" FOREIGN KEY ("customer_id") REFERENCES "customers" ("id");`,
		deferred[0],
	)
	assert.Equal(t,
		`CREATE INDEX "idx_orders_customer_id" ON "orders" ("customer_id");`,
		deferred[1],
	)
}

func TestRenderingIsDeterministic(t *testing.T) {
	r := NewRenderer(Postgres{})
	plan := ordersPlan(t)

	base1, err := r.BaseDDL(plan)
	require.NoError(t, err)
	base2, err := r.BaseDDL(plan)
	require.NoError(t, err)
	assert.Equal(t, base1, base2)

	deferred1, err := r.DeferredDDL(plan)
	require.NoError(t, err)
	deferred2, err := r.DeferredDDL(plan)
	require.NoError(t, err)
	assert.Equal(t, deferred1, deferred2)
}

func TestStatementsAreTerminatedAndNonBlank(t *testing.T) {
	r := NewRenderer(Postgres{})
	plan := ordersPlan(t)

	base, err := r.BaseDDL(plan)
	require.NoError(t, err)
	deferred, err := r.DeferredDDL(plan)
	require.NoError(t, err)

	for _, stmt := range append([]string{base}, deferred...) {
		assert.NotEmpty(t, strings.TrimSpace(stmt))
		assert.True(t, strings.HasSuffix(stmt, ";"))
		assert.False(t, strings.HasSuffix(stmt, ";;"))
	}
}

func TestEmptyDeferredPlanRendersNothing(t *testing.T) {
	r := NewRenderer(Postgres{})
	plan := &phase.Plan{
		TableName:   "plain",
		BaseColumns: []schema.Column{{Name: "id", Type: "integer", Primary: true, NotNull: true}},
	}

	deferred, err := r.DeferredDDL(plan)
	require.NoError(t, err)
	assert.Empty(t, deferred)
}

type failingDialect struct{}

func (failingDialect) CreateTable(string, []schema.Column) (string, error) {
	return "", fmt.Errorf("no such type")
}
func (failingDialect) AddConstraint(string, schema.Constraint) (string, error) {
	return "", fmt.Errorf("no such constraint")
}
func (failingDialect) CreateIndex(string, schema.Index) (string, error) {
	return "", fmt.Errorf("no such index")
}

type blankDialect struct{ failingDialect }

func (blankDialect) CreateTable(string, []schema.Column) (string, error) {
	return "   ", nil
}

func TestDialectFailureBecomesRenderError(t *testing.T) {
	r := NewRenderer(failingDialect{})
	plan := ordersPlan(t)

	_, err := r.BaseDDL(plan)
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, "orders", renderErr.Table)

	_, err = r.DeferredDDL(plan)
	require.True(t, errors.As(err, &renderErr))
}

func TestBlankDialectOutputIsRejected(t *testing.T) {
	r := NewRenderer(blankDialect{})
	plan := ordersPlan(t)

	_, err := r.BaseDDL(plan)
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
}
