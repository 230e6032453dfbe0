package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deferq/internal/query"
	"github.com/roach88/deferq/internal/queryir"
)

func TestParseOrderName(t *testing.T) {
	testCases := []struct {
		method string
		intent query.Intent
		column string
		dir    queryir.Direction
	}{
		{"OrderByName", query.IntentOrderBy, "Name", queryir.Ascending},
		{"OrderByNameDescending", query.IntentOrderBy, "Name", queryir.Descending},
		{"order_by_last_name_descending", query.IntentOrderBy, "last_name", queryir.Descending},
		{"orderbyage", query.IntentOrderBy, "age", queryir.Ascending},
		{"ORDER_BYId", query.IntentOrderBy, "Id", queryir.Ascending},
		{"ThenByAge", query.IntentThenBy, "Age", queryir.Ascending},
		{"then_by_age_DESCENDING", query.IntentThenBy, "age", queryir.Descending},
	}

	for _, tc := range testCases {
		t.Run(tc.method, func(t *testing.T) {
			c, err := query.ParseOrderName("Users", tc.method, tc.intent)
			require.NoError(t, err)
			assert.Equal(t, []string{"Users", tc.column}, c.Ref.Path())
			assert.Equal(t, tc.dir, c.Direction)
		})
	}
}

func TestParseOrderName_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		method string
		intent query.Intent
	}{
		{"wrong convention", "ThenByAge", query.IntentOrderBy},
		{"no column", "OrderBy", query.IntentOrderBy},
		{"only descending", "OrderByDescending", query.IntentOrderBy},
		{"bad identifier", "OrderBy9Lives", query.IntentOrderBy},
		{"not a convention", "Orderly", query.IntentOrderBy},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := query.ParseOrderName("Users", tc.method, tc.intent)
			assert.True(t, query.IsUsageError(err), "got %v", err)
		})
	}
}

func TestInvoke_NameConventions(t *testing.T) {
	q, err := users().Invoke("OrderByNameDescending")
	require.NoError(t, err)
	assert.Equal(t, []queryir.OrderClause{queryir.Desc(queryir.Ref("Users", "Name"))}, q.Order())

	q, err = q.Invoke("ThenByAge")
	require.NoError(t, err)
	assert.Equal(t, []queryir.OrderClause{
		queryir.Desc(queryir.Ref("Users", "Name")),
		queryir.Asc(queryir.Ref("Users", "Age")),
	}, q.Order())
}

func TestInvoke_ThenByConventionWithoutOrder(t *testing.T) {
	_, err := users().Invoke("ThenByAge")
	assert.ErrorIs(t, err, query.ErrUsage)
}

func TestInvoke_DeclaredOperations(t *testing.T) {
	q, err := users().Invoke("select", "Name", "Users.Age")
	require.NoError(t, err)
	assert.Equal(t, []queryir.Reference{queryir.Ref("Users", "Name"), queryir.Ref("Users", "Age")}, q.Columns())

	q, err = q.Invoke("Where", "Age > 30")
	require.NoError(t, err)
	q, err = q.Invoke("WHERE", queryir.Ref("Users", "Name").Eq("Bob"))
	require.NoError(t, err)
	assert.Equal(t, queryir.And(queryir.Ref("Users", "Age").Gt(30), queryir.Ref("Users", "Name").Eq("Bob")), q.Criteria())

	q, err = q.Invoke("ReplaceWhere", "Id = 1")
	require.NoError(t, err)
	assert.Equal(t, queryir.Ref("Users", "Id").Eq(1), q.Criteria())

	q, err = q.Invoke("OrderBy", "Name")
	require.NoError(t, err)
	q, err = q.Invoke("ThenByDescending", queryir.Ref("Users", "Age"))
	require.NoError(t, err)
	assert.Equal(t, []queryir.OrderClause{
		queryir.Asc(queryir.Ref("Users", "Name")),
		queryir.Desc(queryir.Ref("Users", "Age")),
	}, q.Order())

	q, err = q.Invoke("Skip", 10)
	require.NoError(t, err)
	q, err = q.Invoke("take", int64(5))
	require.NoError(t, err)
	skip, _ := q.SkipCount()
	take, _ := q.TakeCount()
	assert.Equal(t, 10, skip)
	assert.Equal(t, 5, take)

	q, err = q.Invoke("Navigate", "Orders")
	require.NoError(t, err)
	assert.Equal(t, "Users.Orders", q.Table())
}

func TestInvoke_Errors(t *testing.T) {
	testCases := []struct {
		name string
		op   string
		args []any
	}{
		{"unknown name", "FindAllByName", nil},
		{"convention with args", "OrderByName", []any{"x"}},
		{"orderby without reference", "OrderBy", nil},
		{"orderby two references", "OrderBy", []any{"A", "B"}},
		{"select bad arg", "Select", []any{42}},
		{"where bad text", "Where", []any{"Age >"}},
		{"where bad arg", "Where", []any{42}},
		{"where no arg", "Where", nil},
		{"skip non-int", "Skip", []any{"ten"}},
		{"navigate empty", "Navigate", []any{""}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := users().Invoke(tc.op, tc.args...)
			require.Error(t, err)
			assert.True(t, query.IsUsageError(err), "got %v", err)
		})
	}
}
