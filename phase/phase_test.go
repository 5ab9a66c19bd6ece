package phase

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rafisarkar/ddlphase/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersTable() *schema.Table {
	zero := "0"
	return &schema.Table{
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
}

func TestSplitAccountsForEveryElement(t *testing.T) {
	table := ordersTable()

	plan, err := Split(table)
	require.NoError(t, err)

	// Every column lands in the base view, unchanged.
	require.Len(t, plan.BaseColumns, len(table.Columns))
	for i, col := range table.Columns {
		assert.Equal(t, col, plan.BaseColumns[i])
	}

	// Exactly two deferred operations: the foreign key and the index. The
	// primary key is inline and the unique constraint duplicates it.
	require.Len(t, plan.Deferred, 2)
	assert.Equal(t, AddConstraint, plan.Deferred[0].Type)
	assert.Equal(t, "orders_customer_id_fkey", plan.Deferred[0].Constraint.Name)
	assert.Equal(t, CreateIndex, plan.Deferred[1].Type)
	assert.Equal(t, "idx_orders_customer_id", plan.Deferred[1].Index.Name)
}

func TestSplitNeverEmitsPrimaryKeyConstraint(t *testing.T) {
	plan, err := Split(ordersTable())
	require.NoError(t, err)

	for _, op := range plan.Deferred {
		if op.Type == AddConstraint {
			assert.NotEqual(t, schema.PrimaryKey, op.Constraint.Kind)
		}
	}
}

func TestSplitDropsUniqueDuplicatingPrimaryKey(t *testing.T) {
	table := &schema.Table{
		Name: "events",
		Columns: []schema.Column{
			{Name: "tenant", Type: "text", Primary: true, NotNull: true},
			{Name: "seq", Type: "bigint", Primary: true, NotNull: true},
		},
		Constraints: []schema.Constraint{
			// Column order differs from the key definition; still the same set.
			{Kind: schema.Unique, Name: "events_seq_tenant_key", Columns: []string{"seq", "tenant"}},
		},
	}

	plan, err := Split(table)
	require.NoError(t, err)
	assert.Empty(t, plan.Deferred)
}

func TestSplitKeepsUniqueOnOtherColumns(t *testing.T) {
	table := &schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: "integer", Primary: true, NotNull: true},
			{Name: "email", Type: "text", NotNull: true},
		},
		Constraints: []schema.Constraint{
			{Kind: schema.Unique, Name: "users_email_key", Columns: []string{"email"}},
		},
	}

	plan, err := Split(table)
	require.NoError(t, err)
	require.Len(t, plan.Deferred, 1)
	assert.Equal(t, schema.Unique, plan.Deferred[0].Constraint.Kind)
}

func TestSplitWithNothingToDefer(t *testing.T) {
	table := &schema.Table{
		Name: "plain",
		Columns: []schema.Column{
			{Name: "id", Type: "integer", Primary: true, NotNull: true},
			{Name: "payload", Type: "jsonb"},
		},
		Constraints: []schema.Constraint{
			{Kind: schema.PrimaryKey, Name: "plain_pkey", Columns: []string{"id"}},
		},
	}

	plan, err := Split(table)
	require.NoError(t, err)
	assert.Empty(t, plan.Deferred)
	assert.Len(t, plan.BaseColumns, 2)
}

func TestSplitRejectsUnknownConstraintKind(t *testing.T) {
	table := &schema.Table{
		Name:    "weird",
		Columns: []schema.Column{{Name: "id", Type: "integer"}},
		Constraints: []schema.Constraint{
			{Kind: schema.ConstraintKind("EXCLUSION"), Name: "weird_excl"},
		},
	}

	_, err := Split(table)
	require.Error(t, err)

	var kindErr *UnsupportedConstraintKindError
	require.True(t, errors.As(err, &kindErr))
	assert.Equal(t, "weird", kindErr.Table)
	assert.Equal(t, schema.ConstraintKind("EXCLUSION"), kindErr.Kind)
}

func TestSplitIsDeterministic(t *testing.T) {
	first, err := Split(ordersTable())
	require.NoError(t, err)
	second, err := Split(ordersTable())
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(first, second))
}

func TestSplitDoesNotAliasTheInput(t *testing.T) {
	table := ordersTable()
	plan, err := Split(table)
	require.NoError(t, err)

	plan.BaseColumns[0].Name = "mutated"
	assert.Equal(t, "id", table.Columns[0].Name)
}
