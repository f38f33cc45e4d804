// Package ragsearch answers natural-language questions over a document
// store with one grounded language model call.
//
// Documents are ranked against the query, the best candidates go into the
// prompt, and the answer cites them as "[document id]". Citations pointing
// outside the prompt are stripped.
//
//	client, _ := ragsearch.New(ctx,
//	    ragsearch.WithDocuments(
//	        ragsearch.Document{ID: "document 1", Content: "Alice grows tomatoes."},
//	        ragsearch.Document{ID: "document 2", Content: "My neighbour walks two dogs."},
//	    ),
//	    ragsearch.WithLanguageModel(model),
//	)
//	ans, _ := client.SearchInternet(ctx, "How many dogs does my neighbour have?")
//	fmt.Println(ans.Text, ans.Citations)
//
// Documents can also be read from Valkey or Redis hashes at <prefix>doc:<id>
// (WithValkey, WithRedis). Passing WithEmbedder switches ranking from BM25
// to a hybrid of BM25 and embedding similarity.
package ragsearch
