package introspect

import (
	"testing"

	"github.com/rafisarkar/ddlphase/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSerialDefault(t *testing.T) {
	nextval := `nextval('orders_id_seq'::regclass)`
	upper := `NEXTVAL('orders_id_seq')`
	literal := `0`

	assert.True(t, IsSerialDefault(&nextval))
	assert.True(t, IsSerialDefault(&upper))
	assert.False(t, IsSerialDefault(&literal))
	assert.False(t, IsSerialDefault(nil))
}

func TestSplitIndexColumns(t *testing.T) {
	assert.Equal(t, []string{"customer_id"}, SplitIndexColumns("customer_id"))
	assert.Equal(t, []string{"a", "b", "c"}, SplitIndexColumns("a, b ,c"))
}

func TestReferentialAction(t *testing.T) {
	assert.Equal(t, "CASCADE", referentialAction("c"))
	assert.Equal(t, "SET NULL", referentialAction("n"))
	assert.Equal(t, "SET DEFAULT", referentialAction("d"))
	assert.Equal(t, "RESTRICT", referentialAction("r"))
	assert.Equal(t, "", referentialAction("a"))
	assert.Equal(t, "", referentialAction(""))
}

func TestGroupForeignKeysPairsCompositeColumns(t *testing.T) {
	// One row per local/referenced column pair, in key order, as the
	// catalog query yields them.
	rows := []foreignKeyRow{
		{Name: "fk_lines_orders", Column: "order_tenant", RefTable: "orders", RefColumn: "tenant", OnDelete: "c"},
		{Name: "fk_lines_orders", Column: "order_seq", RefTable: "orders", RefColumn: "seq", OnDelete: "c"},
	}

	fks := groupForeignKeys(rows)
	require.Len(t, fks, 1)
	assert.Equal(t, schema.ForeignKey, fks[0].Kind)
	assert.Equal(t, []string{"order_tenant", "order_seq"}, fks[0].Columns)
	assert.Equal(t, []string{"tenant", "seq"}, fks[0].RefColumns)
	assert.Equal(t, "orders", fks[0].RefTable)
	assert.Equal(t, "CASCADE", fks[0].OnDelete)
	assert.Equal(t, "", fks[0].OnUpdate)
}

func TestGroupForeignKeysKeepsSeparateConstraintsApart(t *testing.T) {
	rows := []foreignKeyRow{
		{Name: "fk_a", Column: "x", RefTable: "t1", RefColumn: "id"},
		{Name: "fk_b", Column: "y", RefTable: "t2", RefColumn: "id"},
		{Name: "fk_a", Column: "z", RefTable: "t1", RefColumn: "alt"},
	}

	fks := groupForeignKeys(rows)
	require.Len(t, fks, 2)
	assert.Equal(t, "fk_a", fks[0].Name)
	assert.Equal(t, []string{"x", "z"}, fks[0].Columns)
	assert.Equal(t, []string{"id", "alt"}, fks[0].RefColumns)
	assert.Equal(t, "fk_b", fks[1].Name)
	assert.Equal(t, []string{"y"}, fks[1].Columns)
}

func TestForeignKeysQueryPairsColumnsByOrdinal(t *testing.T) {
	// Positional conkey/confkey pairing; a name-keyed information_schema
	// join cross-multiplies composite keys.
	assert.Contains(t, foreignKeysQuery, "unnest(con.conkey) WITH ORDINALITY")
	assert.Contains(t, foreignKeysQuery, "unnest(con.confkey) WITH ORDINALITY")
	assert.Contains(t, foreignKeysQuery, "fk.ord = k.ord")
	assert.Contains(t, foreignKeysQuery, "ORDER BY con.conname, k.ord")
}

func TestColumnsQueryKeepsTypeModifiersAndStableNumbering(t *testing.T) {
	// format_type preserves varchar(n)/numeric(p,s); attnum does not
	// renumber after dropped columns the way ordinal_position does.
	assert.Contains(t, columnsQuery, "format_type(a.atttypid, a.atttypmod)")
	assert.Contains(t, columnsQuery, "col_description(a.attrelid, a.attnum)")
	assert.Contains(t, columnsQuery, "NOT a.attisdropped")
}
