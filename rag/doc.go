// Package rag implements retrieval-augmented question answering over
// documents: loading (PDF and plain text), chunking, embedding, similarity
// search and a compiled retrieve-then-generate graph.
//
//	docs, _ := rag.LoadPDF(ctx, "handbook.pdf")
//	chunks, _ := rag.NewSplitter().Split(docs)
//	index := rag.NewIndex(memory.NewChunkStore(), embedder, "handbook")
//	_ = index.Add(ctx, chunks)
//
//	qa, _ := rag.NewQAGraph(index, model)
//	out, _ := qa.Invoke(ctx, graph.State{"question": "What is the claims window?"})
//	fmt.Println(out["answer"])
package rag
