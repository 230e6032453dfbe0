package testutil

import (
	"context"
	"sync"

	"github.com/roach88/deferq/internal/ir"
	"github.com/roach88/deferq/internal/query"
)

// Response is what a scripted Adapter returns for one call.
type Response struct {
	// Rows are yielded in order.
	Rows []ir.Row

	// Err fails RunQuery itself.
	Err error

	// RowErr is yielded after Rows, ending the sequence with an error.
	RowErr error
}

// Adapter is a scripted query.Adapter for tests.
//
// Responses are chosen in this order: the queued responses (one per call),
// then the responder function if set, then the default rows.
// Every call is recorded.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Adapter struct {
	mu        sync.Mutex
	rows      []ir.Row
	queue     []Response
	responder func(query.Query) Response
	calls     []query.Query
	gate      chan struct{}
}

// NewAdapter returns an Adapter that answers every call with rows.
func NewAdapter(rows ...ir.Row) *Adapter {
	return &Adapter{rows: rows}
}

// Enqueue adds responses consumed one per call before falling back.
func (a *Adapter) Enqueue(resp ...Response) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queue = append(a.queue, resp...)
}

// RespondWith sets a function that computes the response from the Query.
func (a *Adapter) RespondWith(fn func(query.Query) Response) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responder = fn
}

// Block makes subsequent calls wait until the returned release function is
// called or their context ends. Calls are recorded before waiting.
func (a *Adapter) Block() (release func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	gate := make(chan struct{})
	a.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			if a.gate == gate {
				a.gate = nil
			}
			a.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the Queries received so far, in call order.
func (a *Adapter) Calls() []query.Query {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]query.Query, len(a.calls))
	copy(out, a.calls)
	return out
}

// CallCount returns the number of RunQuery calls.
func (a *Adapter) CallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

// LastCall returns the most recent Query. It panics when there was none.
func (a *Adapter) LastCall() query.Query {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[len(a.calls)-1]
}

// RunQuery implements query.Adapter.
func (a *Adapter) RunQuery(ctx context.Context, q query.Query) (query.Rows, error) {
	a.mu.Lock()
	a.calls = append(a.calls, q)
	gate := a.gate
	resp := a.next(q)
	a.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}
	return func(yield func(ir.Row, error) bool) {
		for _, r := range resp.Rows {
			if !yield(r.Clone(), nil) {
				return
			}
		}
		if resp.RowErr != nil {
			yield(nil, resp.RowErr)
		}
	}, nil
}

// next picks the response for a call. Callers hold mu.
func (a *Adapter) next(q query.Query) Response {
	if len(a.queue) > 0 {
		resp := a.queue[0]
		a.queue = a.queue[1:]
		return resp
	}
	if a.responder != nil {
		return a.responder(q)
	}
	return Response{Rows: a.rows}
}

// Rows builds rows from alternating column/value pairs per row.
// Example: Rows([]any{"Id", 1, "Name", "Bob"}) → one row with two columns.
// It panics on malformed input.
func Rows(pairs ...[]any) []ir.Row {
	out := make([]ir.Row, 0, len(pairs))
	for _, p := range pairs {
		if len(p)%2 != 0 {
			panic("testutil.Rows: odd number of column/value items")
		}
		row := make(ir.Row, 0, len(p)/2)
		for i := 0; i < len(p); i += 2 {
			name, ok := p[i].(string)
			if !ok {
				panic("testutil.Rows: column name must be a string")
			}
			v, err := ir.FromGo(p[i+1])
			if err != nil {
				panic(err)
			}
			row = append(row, ir.F(name, v))
		}
		out = append(out, row)
	}
	return out
}
