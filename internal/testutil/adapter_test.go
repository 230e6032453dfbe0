package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deferq/internal/ir"
	"github.com/roach88/deferq/internal/query"
)

func drain(t *testing.T, rows query.Rows) ([]ir.Row, error) {
	t.Helper()
	var out []ir.Row
	for r, err := range rows {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

func TestAdapter_DefaultRowsAndRecording(t *testing.T) {
	a := NewAdapter(Rows([]any{"Id", 1}, []any{"Id", 2})...)
	q := query.New(a, "Users")

	rows, err := a.RunQuery(context.Background(), q)
	require.NoError(t, err)
	got, err := drain(t, rows)
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Equal(t, 1, a.CallCount())
	assert.Equal(t, "Users", a.LastCall().Table())
}

func TestAdapter_QueueThenResponderThenDefault(t *testing.T) {
	a := NewAdapter(Rows([]any{"Src", "default"})...)
	a.Enqueue(Response{Rows: Rows([]any{"Src", "queued"})})
	a.RespondWith(func(q query.Query) Response {
		return Response{Rows: Rows([]any{"Src", q.Table()})}
	})

	ctx := context.Background()
	q := query.New(a, "Users")

	first, _ := a.RunQuery(ctx, q)
	second, _ := a.RunQuery(ctx, q)

	r1, _ := drain(t, first)
	r2, _ := drain(t, second)
	assert.Equal(t, ir.IRString("queued"), r1[0][0].Value)
	assert.Equal(t, ir.IRString("Users"), r2[0][0].Value)
}

func TestAdapter_Errors(t *testing.T) {
	boom := errors.New("boom")
	a := NewAdapter()
	a.Enqueue(Response{Err: boom}, Response{Rows: Rows([]any{"Id", 1}), RowErr: boom})

	ctx := context.Background()
	q := query.New(a, "Users")

	_, err := a.RunQuery(ctx, q)
	assert.ErrorIs(t, err, boom)

	rows, err := a.RunQuery(ctx, q)
	require.NoError(t, err)
	got, err := drain(t, rows)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, got, 1)
}

func TestAdapter_BlockHonorsContext(t *testing.T) {
	a := NewAdapter()
	release := a.Block()
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.RunQuery(ctx, query.New(a, "Users"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, a.CallCount())
}

func TestRows_PanicsOnOddPairs(t *testing.T) {
	assert.Panics(t, func() { Rows([]any{"Id"}) })
}
