// Package graph is the state-graph execution engine of graphflow.
//
// A graph is declared with a Builder, compiled into an immutable Graph and
// invoked once per run:
//
//	schema := graph.NewSchema(
//		graph.FieldOf[string]("message"),
//		graph.FieldOf[int]("someNumber"),
//	)
//	b := graph.NewBuilder(schema)
//	b.AddNode("a", nodeA)
//	b.AddNode("b", nodeB)
//	b.AddNode("c", nodeC)
//	b.AddEdge(graph.START, "a")
//	b.AddConditionalEdge("a", shouldGoToC, map[string]string{
//		"goToB": "b",
//		"goToC": "c",
//	})
//	b.AddEdge("b", graph.END)
//	b.AddEdge("c", graph.END)
//
//	g, err := b.Compile(graph.WithLogger(logger))
//	out, err := g.Invoke(ctx, graph.State{"message": "Hello"})
//
// # Execution model
//
// Runs advance in supersteps. Every node of the frontier runs against the same
// merged state; their partial updates are merged with the per-field reducers
// in node registration order, and only then are conditional edges evaluated.
// A node reached by several concurrent branches waits until every branch that
// can still reach it has arrived, so it runs exactly once. A run ends when the
// frontier is empty or only holds END.
//
// # State
//
// State fields are declared with FieldOf. A field without a reducer is
// overwritten; when several nodes of one superstep write it, the node
// registered last wins. ConcatReducer and AppendReducer accumulate instead.
//
// # Errors
//
// Compile returns a *GraphValidationError listing every problem found.
// Invoke fails with *NodeExecutionError, *RoutingKeyError, *StepLimitError or
// *StateError and never returns partial state.
//
// # Observability
//
// Loggers, tracers (with TraceHook implementations such as the OpenTelemetry
// hook in package observe) and NodeListeners are injected as Compile options.
// Exporter renders Mermaid and DOT diagrams of a compiled graph.
package graph
