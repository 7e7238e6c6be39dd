// Package summarize condenses long texts with a map-reduce graph.
//
// The graph splits the text into overlapping chunks, summarizes every chunk
// in a few sentences and then asks the model to synthesize the chunk
// summaries into one paragraph:
//
//	START -> split -> map -> reduce -> END
//
// Chunk summaries are produced concurrently but kept in chunk order.
package summarize
