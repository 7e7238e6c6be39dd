package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectingHook struct {
	mu    sync.Mutex
	spans []TraceSpan
}

func (h *collectingHook) OnEvent(ctx context.Context, span *TraceSpan) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.spans = append(h.spans, *span)
}

func (h *collectingHook) events(event TraceEvent) []TraceSpan {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []TraceSpan
	for _, s := range h.spans {
		if s.Event == event {
			out = append(out, s)
		}
	}
	return out
}

func TestTracerRecordsRun(t *testing.T) {
	hook := &collectingHook{}
	tracer := NewTracer(hook)

	b := NewBuilder(nil)
	require.NoError(t, b.AddNode("a", noop))
	require.NoError(t, b.AddNode("b", noop))
	require.NoError(t, b.SetEntryPoint("a"))
	require.NoError(t, b.AddEdge("a", "b"))
	require.NoError(t, b.AddEdge("b", END))

	g, err := b.Compile(WithTracer(tracer))
	require.NoError(t, err)

	_, err = g.InvokeWithConfig(context.Background(), State{}, &Config{RunID: "r1"})
	require.NoError(t, err)

	graphEnd := hook.events(TraceEventGraphEnd)
	require.Len(t, graphEnd, 1)
	assert.Equal(t, "r1", graphEnd[0].RunID)

	nodeEnds := hook.events(TraceEventNodeEnd)
	require.Len(t, nodeEnds, 2)
	for _, s := range nodeEnds {
		assert.Equal(t, graphEnd[0].ID, s.ParentID)
		assert.Positive(t, s.Step)
	}

	edges := hook.events(TraceEventEdgeTraversal)
	var pairs [][2]string
	for _, e := range edges {
		pairs = append(pairs, [2]string{e.FromNode, e.ToNode})
	}
	assert.Equal(t, [][2]string{{START, "a"}, {"a", "b"}, {"b", END}}, pairs)

	assert.NotEmpty(t, tracer.GetSpans())
	tracer.Clear()
	assert.Empty(t, tracer.GetSpans())
}

func TestTracerRecordsNodeError(t *testing.T) {
	hook := &collectingHook{}
	tracer := NewTracer()
	tracer.AddHook(hook)

	b := NewBuilder(nil)
	require.NoError(t, b.AddNode("bad", func(ctx context.Context, s State) (State, error) {
		return nil, errors.New("nope")
	}))
	require.NoError(t, b.SetEntryPoint("bad"))

	g, err := b.Compile(WithTracer(tracer))
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), nil)
	require.Error(t, err)

	nodeErrs := hook.events(TraceEventNodeError)
	require.Len(t, nodeErrs, 1)
	assert.EqualError(t, nodeErrs[0].Error, "nope")

	graphEnd := hook.events(TraceEventGraphEnd)
	require.Len(t, graphEnd, 1)
	assert.Error(t, graphEnd[0].Error)
}

func TestTraceHookFunc(t *testing.T) {
	var got TraceEvent
	hook := TraceHookFunc(func(ctx context.Context, span *TraceSpan) {
		got = span.Event
	})

	tracer := NewTracer(hook)
	tracer.TraceEdgeTraversal(context.Background(), "a", "b")
	assert.Equal(t, TraceEventEdgeTraversal, got)
}

func TestSpanContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, SpanFromContext(ctx))

	span := &TraceSpan{ID: "s1"}
	assert.Same(t, span, SpanFromContext(ContextWithSpan(ctx, span)))
}

func TestTracerRetainsOnlyRecentSpans(t *testing.T) {
	hook := &collectingHook{}
	tracer := NewTracer(hook)
	tracer.SetSpanLimit(3)
	ctx := context.Background()

	var last *TraceSpan
	for range 5 {
		last = tracer.StartSpan(ctx, TraceEventNodeStart, "n")
		tracer.EndSpan(ctx, last, nil, nil)
	}

	spans := tracer.GetSpans()
	assert.Len(t, spans, 3)
	assert.Contains(t, spans, last.ID)
	assert.Len(t, hook.events(TraceEventNodeEnd), 5)

	tracer.SetSpanLimit(0)
	assert.Empty(t, tracer.GetSpans())
	tracer.TraceEdgeTraversal(ctx, "a", "b")
	assert.Empty(t, tracer.GetSpans())
	assert.Len(t, hook.events(TraceEventEdgeTraversal), 1)
}
