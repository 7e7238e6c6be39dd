// Package log provides the leveled logging interface used across graphflow.
//
// Every component that logs (the graph engine, tools, pipelines) accepts a
// Logger. The default implementation wraps github.com/kataras/golog:
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Info("compiled graph with %d nodes", n)
//
// Existing golog loggers can be wrapped directly:
//
//	g := golog.New()
//	g.SetPrefix("[rag] ")
//	logger := log.NewGologLogger(g)
//	logger.SetLevel(log.LogLevelDebug)
//
// Named derives a per-component logger sharing the parent's output:
//
//	lookupLog := logger.Named("cic_lookup")
//
// NoOpLogger discards everything and is what the engine falls back to when no
// logger is injected.
package log
