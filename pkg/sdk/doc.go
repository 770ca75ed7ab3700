// Package conceptualsearch embeds the conceptual search engine in a Go
// program. It talks to Elasticsearch directly, without the HTTP server.
//
// Content searches sorted by relevance are expanded with predicted keyword
// labels and scored by sentence-vector similarity when a Model is configured.
// Without one the lexical baseline is used.
//
//	client, _ := conceptualsearch.New(ctx,
//	    conceptualsearch.WithElasticsearch("ons", "http://localhost:9200"),
//	    conceptualsearch.WithModel(model),
//	)
//	res, _ := client.Content(ctx, conceptualsearch.ContentQuery{Query: "rpi inflation"})
//	counts, _ := client.Counts(ctx, "rpi inflation")
package conceptualsearch
