package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/graphflow/graphflow/graph"
)

// OTelHook turns graph trace spans into OpenTelemetry spans.
//
// Graph and node spans become OTel spans nested the same way they are nested
// in the run; edge traversals become span events on the enclosing span.
//
//	tracer := graph.NewTracer(observe.NewOTelHook(otel.Tracer("graphflow")))
//	g, err := builder.Compile(graph.WithTracer(tracer))
type OTelHook struct {
	tracer trace.Tracer

	mu   sync.Mutex
	open map[string]trace.Span
}

var _ graph.TraceHook = (*OTelHook)(nil)

// NewOTelHook creates a hook emitting spans through tracer.
func NewOTelHook(tracer trace.Tracer) *OTelHook {
	return &OTelHook{
		tracer: tracer,
		open:   make(map[string]trace.Span),
	}
}

// OnEvent implements graph.TraceHook.
func (h *OTelHook) OnEvent(ctx context.Context, span *graph.TraceSpan) {
	switch span.Event {
	case graph.TraceEventGraphStart, graph.TraceEventNodeStart:
		h.start(ctx, span)
	case graph.TraceEventGraphEnd, graph.TraceEventNodeEnd, graph.TraceEventNodeError:
		h.end(span)
	case graph.TraceEventEdgeTraversal:
		h.edge(span)
	}
}

func (h *OTelHook) start(ctx context.Context, span *graph.TraceSpan) {
	h.mu.Lock()
	parent, ok := h.open[span.ParentID]
	h.mu.Unlock()
	if ok {
		ctx = trace.ContextWithSpan(ctx, parent)
	}

	name := "graph.run"
	if span.Event == graph.TraceEventNodeStart {
		name = "graph.node " + span.NodeName
	}

	attrs := []attribute.KeyValue{
		attribute.String("graph.run_id", span.RunID),
	}
	if span.Event == graph.TraceEventNodeStart {
		attrs = append(attrs,
			attribute.String("graph.node", span.NodeName),
			attribute.Int("graph.step", span.Step),
		)
	}

	_, otelSpan := h.tracer.Start(ctx, name,
		trace.WithTimestamp(span.StartTime),
		trace.WithAttributes(attrs...),
	)

	h.mu.Lock()
	h.open[span.ID] = otelSpan
	h.mu.Unlock()
}

func (h *OTelHook) end(span *graph.TraceSpan) {
	h.mu.Lock()
	otelSpan, ok := h.open[span.ID]
	delete(h.open, span.ID)
	h.mu.Unlock()
	if !ok {
		return
	}

	if span.Error != nil {
		otelSpan.RecordError(span.Error)
		otelSpan.SetStatus(codes.Error, span.Error.Error())
	} else {
		otelSpan.SetStatus(codes.Ok, "")
	}
	otelSpan.End(trace.WithTimestamp(span.EndTime))
}

func (h *OTelHook) edge(span *graph.TraceSpan) {
	h.mu.Lock()
	parent, ok := h.open[span.ParentID]
	h.mu.Unlock()
	if !ok {
		return
	}
	parent.AddEvent("edge_traversal", trace.WithAttributes(
		attribute.String("graph.edge.from", span.FromNode),
		attribute.String("graph.edge.to", span.ToNode),
	))
}
