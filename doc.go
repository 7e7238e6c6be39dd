// Graphflow - graph-based LLM orchestration in Go
//
// Graphflow runs workflows declared as state graphs. Nodes read a shared
// state and return partial updates; per-field reducers merge the updates of
// each superstep before any routing decision is made. Branches fan out and
// join, and conditional edges route on the merged state.
//
// # Quick Start
//
//	b := graph.NewBuilder(graph.NewSchema(graph.FieldOf[string]("message")))
//	b.AddNode("a", func(ctx context.Context, s graph.State) (graph.State, error) {
//		return graph.State{"message": "I have been updated by node A"}, nil
//	})
//	b.AddEdge(graph.START, "a")
//	b.AddEdge("a", graph.END)
//
//	g, err := b.Compile()
//	if err != nil {
//		return err
//	}
//	out, err := g.Invoke(ctx, graph.State{"message": "hello"})
//
// # Packages
//
//   - graph: builder, execution engine, reducers, tracing and mermaid/DOT export
//   - prebuilt: ReAct agent alternating a chat model with tool calls
//   - tool: arithmetic, web search, page fetching and the CIC phone lookup
//   - rag: PDF loading, chunking, similarity search and the question answering graph
//   - summarize: map-reduce summarization of long documents
//   - article: paragraph and structured headline generation
//   - store: chunk stores and caches backed by memory, SQLite, Postgres or Redis
//   - llms/providers, llms/fallback: OpenAI, Groq, Gemini and Ollama models with ordered fallback
//   - observe: Prometheus metrics and OpenTelemetry spans for graph runs
//   - report: markdown to sanitized HTML
//   - config, log: environment configuration and golog based logging
//
// Runnable programs live under examples/.
package graphflow
