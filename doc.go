// Package currdex provides an embedded client for the currdex semantic
// retrieval and curriculum benchmarking engine, backed by Redis for the
// corpus and optionally Postgres for competitor programs.
//
// The engine serves two workloads over one corpus of credibility-scored
// documents:
//   - Semantic retrieval: similarity search with credibility-first ordering,
//     composite ranking and multi-variant query merging
//   - Curriculum benchmarking: pairwise topic comparison of a generated
//     curriculum against imported competitor programs
//
// # Usage
//
//	client, _ := currdex.New(ctx,
//	    currdex.WithRedis("localhost:6379", ""),
//	    currdex.WithPostgres(dsn),
//	    currdex.WithEmbedder(embedder),
//	)
//	defer client.Close()
//
//	client.Corpus().Ingest(ctx, docs)
//	results, _ := client.Retrieval().Search(ctx, "spaced repetition", nil)
//	report, _ := client.Benchmark().Compare(ctx, programID, units)
package currdex
