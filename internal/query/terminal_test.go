package query_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deferq/internal/ir"
	"github.com/roach88/deferq/internal/query"
	"github.com/roach88/deferq/internal/queryir"
	"github.com/roach88/deferq/internal/testutil"
)

func threeUsers() []ir.Row {
	return testutil.Rows(
		[]any{"Id", 1, "Name", "Alice", "Age", 25},
		[]any{"Id", 2, "Name", "Bob", "Age", 35},
		[]any{"Id", 3, "Name", "Carol", "Age", 45},
	)
}

func TestIter_IsLazy(t *testing.T) {
	a := testutil.NewAdapter(threeUsers()...)
	q := query.New(a, "Users")

	seq := q.Iter(context.Background())
	assert.Equal(t, 0, a.CallCount(), "building the sequence must not execute")

	var names []string
	for rec, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "Users", rec.Table())
		names = append(names, ir.String(rec.Value("Name")))
	}
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names)
	assert.Equal(t, 1, a.CallCount())

	// Iter is never cached
	for range seq {
	}
	assert.Equal(t, 2, a.CallCount())
}

func TestIter_EarlyBreak(t *testing.T) {
	q := query.New(testutil.NewAdapter(threeUsers()...), "Users")

	count := 0
	for _, err := range q.Iter(context.Background()) {
		require.NoError(t, err)
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestIter_PropagatesAdapterErrors(t *testing.T) {
	boom := errors.New("connection refused")
	a := testutil.NewAdapter()
	a.Enqueue(testutil.Response{Err: boom})

	for _, err := range query.New(a, "Users").Iter(context.Background()) {
		assert.Same(t, boom, err)
	}
}

func TestToList_CachesPerQueryValue(t *testing.T) {
	a := testutil.NewAdapter(threeUsers()...)
	q := query.New(a, "Users")
	ctx := context.Background()

	first, err := q.ToList(ctx)
	require.NoError(t, err)
	second, err := q.ToArray(ctx)
	require.NoError(t, err)

	assert.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, a.CallCount())

	// Derived queries get their own slot
	_, err = q.Take(2).ToList(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, a.CallCount())
}

func TestToList_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	a := testutil.NewAdapter(threeUsers()...)
	a.Enqueue(testutil.Response{Err: boom})
	q := query.New(a, "Users")
	ctx := context.Background()

	_, err := q.ToList(ctx)
	assert.ErrorIs(t, err, boom)

	list, err := q.ToList(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 2, a.CallCount())
}

func TestToList_MidStreamError(t *testing.T) {
	boom := errors.New("disk I/O error")
	a := testutil.NewAdapter()
	a.Enqueue(testutil.Response{Rows: threeUsers(), RowErr: boom})

	_, err := query.New(a, "Users").ToList(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestToList_ConcurrentFirstUseExecutesOnce(t *testing.T) {
	a := testutil.NewAdapter(threeUsers()...)
	release := a.Block()
	q := query.New(a, "Users")

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]query.Record, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = q.ToList(context.Background())
		}()
	}

	assert.Eventually(t, func() bool { return a.CallCount() == 1 }, time.Second, 5*time.Millisecond)
	release()
	wg.Wait()

	assert.Equal(t, 1, a.CallCount())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Len(t, results[i], 3)
	}
}

func TestCount(t *testing.T) {
	a := testutil.NewAdapter()
	a.RespondWith(func(q query.Query) testutil.Response {
		return testutil.Response{Rows: testutil.Rows([]any{"COUNT(*)", 3})}
	})
	q := query.New(a, "Users")

	n, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	sent := a.LastCall()
	require.Len(t, sent.Columns(), 1)
	assert.Equal(t, queryir.RefCount, sent.Columns()[0].Kind())
	assert.Empty(t, q.Columns(), "Count must not change the receiver")

	_, takeSet := sent.TakeCount()
	assert.False(t, takeSet, "a take would apply before counting")
}

func TestCount_KeepsPaging(t *testing.T) {
	a := testutil.NewAdapter(testutil.Rows([]any{"COUNT(*)", 10})...)

	_, err := query.New(a, "Users").Skip(10).Take(10).Count(context.Background())
	require.NoError(t, err)

	take, _ := a.LastCall().TakeCount()
	skip, _ := a.LastCall().SkipCount()
	assert.Equal(t, 10, take)
	assert.Equal(t, 10, skip)
}

func TestCount_ConjoinsCriteria(t *testing.T) {
	a := testutil.NewAdapter(testutil.Rows([]any{"n", 2})...)
	base := queryir.Ref("Users", "Name").Ne("Zed")
	extra := queryir.Ref("Users", "Age").Gt(30)

	_, err := query.New(a, "Users").Where(base).Count(context.Background(), extra)
	require.NoError(t, err)

	assert.Equal(t, queryir.And(base, extra), a.LastCall().Criteria())
}

func TestExists(t *testing.T) {
	testCases := []struct {
		name    string
		rows    []ir.Row
		want    bool
		wantErr error
	}{
		{"no rows", nil, false, nil},
		{"one row", testutil.Rows([]any{"1", 1}), true, nil},
		{"two rows", testutil.Rows([]any{"1", 1}, []any{"1", 1}), false, query.ErrMultipleRows},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := testutil.NewAdapter(tc.rows...)
			q := query.New(a, "Users")

			got, err := q.Exists(context.Background())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, queryir.RefExists, a.LastCall().Columns()[0].Kind())

			anyResult, err := q.Any(context.Background(), queryir.Ref("Users", "Id").Eq(1))
			require.NoError(t, err)
			assert.Equal(t, tc.want, anyResult)
			assert.NotNil(t, a.LastCall().Criteria())
		})
	}
}

func TestFirst(t *testing.T) {
	a := testutil.NewAdapter(threeUsers()...)
	q := query.New(a, "Users")
	ctx := context.Background()

	rec, err := q.First(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("Alice"), rec.Value("Name"))

	take, ok := a.LastCall().TakeCount()
	assert.True(t, ok)
	assert.Equal(t, 1, take)

	def, err := q.FirstOrDefault(ctx)
	require.NoError(t, err)
	assert.False(t, def.IsZero())
}

func TestFirst_KeepsSmallerTake(t *testing.T) {
	a := testutil.NewAdapter()
	_, err := query.New(a, "Users").Take(0).FirstOrDefault(context.Background())
	require.NoError(t, err)

	take, _ := a.LastCall().TakeCount()
	assert.Equal(t, 0, take)
}

func TestFirst_UsesFilledCache(t *testing.T) {
	a := testutil.NewAdapter(threeUsers()...)
	q := query.New(a, "Users")
	ctx := context.Background()

	_, err := q.ToList(ctx)
	require.NoError(t, err)
	rec, err := q.First(ctx)
	require.NoError(t, err)

	assert.Equal(t, ir.IRInt(1), rec.Value("Id"))
	assert.Equal(t, 1, a.CallCount())
}

func TestFirst_Empty(t *testing.T) {
	q := query.New(testutil.NewAdapter(), "Users")
	ctx := context.Background()

	_, err := q.First(ctx)
	assert.ErrorIs(t, err, query.ErrNoRows)
	assert.True(t, query.IsCardinalityError(err))

	rec, err := q.FirstOrDefault(ctx)
	require.NoError(t, err)
	assert.True(t, rec.IsZero())
}

func TestSingle(t *testing.T) {
	ctx := context.Background()
	one := testutil.Rows([]any{"Id", 7})
	two := testutil.Rows([]any{"Id", 1}, []any{"Id", 2})

	rec, err := query.New(testutil.NewAdapter(one...), "Users").Single(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(7), rec.Value("Id"))

	_, err = query.New(testutil.NewAdapter(), "Users").Single(ctx)
	assert.ErrorIs(t, err, query.ErrNoRows)

	_, err = query.New(testutil.NewAdapter(two...), "Users").Single(ctx)
	assert.ErrorIs(t, err, query.ErrMultipleRows)

	rec, err = query.New(testutil.NewAdapter(), "Users").SingleOrDefault(ctx)
	require.NoError(t, err)
	assert.True(t, rec.IsZero())

	_, err = query.New(testutil.NewAdapter(two...), "Users").SingleOrDefault(ctx)
	assert.ErrorIs(t, err, query.ErrMultipleRows)

	a := testutil.NewAdapter(one...)
	_, err = query.New(a, "Users").Single(ctx)
	require.NoError(t, err)
	take, _ := a.LastCall().TakeCount()
	assert.Equal(t, 2, take)
}

func TestToScalar(t *testing.T) {
	testCases := []struct {
		name    string
		rows    []ir.Row
		want    ir.IRValue
		wantErr error
	}{
		{"one value", testutil.Rows([]any{"Name", "Bob"}), ir.IRString("Bob"), nil},
		{"null value", testutil.Rows([]any{"Name", nil}), ir.IRNull{}, nil},
		{"no rows", nil, nil, query.ErrNoRows},
		{"two rows", testutil.Rows([]any{"Name", "a"}, []any{"Name", "b"}), nil, query.ErrMultipleRows},
		{"two columns", testutil.Rows([]any{"Name", "a", "Age", 3}), nil, query.ErrMultipleColumns},
		{"zero columns", []ir.Row{{}}, nil, query.ErrNoRows},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := query.New(testutil.NewAdapter(tc.rows...), "Users")

			got, err := q.ToScalar(context.Background())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.True(t, query.IsCardinalityError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToScalarOrDefault(t *testing.T) {
	ctx := context.Background()

	got, err := query.New(testutil.NewAdapter(), "Users").ToScalarOrDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.IRNull{}, got)

	got, err = query.New(testutil.NewAdapter(testutil.Rows([]any{"Id", 4})...), "Users").ToScalarOrDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(4), got)

	_, err = query.New(testutil.NewAdapter(testutil.Rows([]any{"Id", 4}, []any{"Id", 5})...), "Users").ToScalarOrDefault(ctx)
	assert.ErrorIs(t, err, query.ErrMultipleRows)
}

func TestTerminals_WithoutAdapter(t *testing.T) {
	var q query.Query
	_, err := q.ToList(context.Background())
	assert.ErrorIs(t, err, query.ErrNoAdapter)
}

func TestAdapterErrorsAreUnchanged(t *testing.T) {
	boom := errors.New("no such table: Users")
	a := testutil.NewAdapter()
	a.RespondWith(func(query.Query) testutil.Response { return testutil.Response{Err: boom} })
	q := query.New(a, "Users")
	ctx := context.Background()

	_, err := q.Count(ctx)
	assert.Same(t, boom, err)
	_, err = q.First(ctx)
	assert.Same(t, boom, err)
	_, err = q.ToScalarOrDefault(ctx)
	assert.Same(t, boom, err)
}

func TestRecord(t *testing.T) {
	q := query.New(testutil.NewAdapter(testutil.Rows([]any{"LastName", "Smith", "Id", 1})...), "Users")
	rec, err := q.First(context.Background())
	require.NoError(t, err)

	v, ok := rec.Get("LastName")
	assert.True(t, ok)
	assert.Equal(t, ir.IRString("Smith"), v)

	v, ok = rec.Get("last_name")
	assert.True(t, ok)
	assert.Equal(t, ir.IRString("Smith"), v)

	_, ok = rec.Get("Missing")
	assert.False(t, ok)
	assert.Equal(t, ir.IRNull{}, rec.Value("Missing"))

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"LastName":"Smith","Id":1}`, string(data))

	data, err = json.Marshal(query.Record{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestRecord_RowIsACopy(t *testing.T) {
	q := query.New(testutil.NewAdapter(testutil.Rows([]any{"Id", 1})...), "Users")
	list, err := q.ToList(context.Background())
	require.NoError(t, err)

	row := list[0].Row()
	row[0].Value = ir.IRInt(99)

	again, err := q.ToList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(1), again[0].Value("Id"))
}
