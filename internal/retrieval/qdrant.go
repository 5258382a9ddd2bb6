// Package retrieval provides the vector-search collaborator behind the
// knowledge specialist.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vaanihq/vaani/internal/config"
)

// Document is one ranked retrieval result.
type Document struct {
	ID     string
	Title  string
	Text   string
	Source string
	Score  float32
}

// Retriever searches the knowledge base for passages relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]Document, error)
}

// Embedder turns text into a vector. The gemini client satisfies this.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// QdrantRetriever implements Retriever over a Qdrant collection of embedded
// knowledge-base passages.
type QdrantRetriever struct {
	client         *qdrant.Client
	embedder       Embedder
	collectionName string
	scoreThreshold float32
	log            *slog.Logger
}

// New connects to Qdrant and wraps the collection named in cfg.
func New(cfg config.RetrievalConfig, embedder Embedder, log *slog.Logger) (*QdrantRetriever, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	return &QdrantRetriever{
		client:         client,
		embedder:       embedder,
		collectionName: cfg.Collection,
		scoreThreshold: cfg.ScoreThreshold,
		log:            log.With("component", "retrieval"),
	}, nil
}

// EnsureCollection creates the knowledge collection when it does not exist
// yet, with cosine distance over vectors of the given size.
func (r *QdrantRetriever) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.GetCollectionInfo(ctx, r.collectionName)
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.NotFound {
		return fmt.Errorf("failed to check collection %q: %w", r.collectionName, err)
	}

	r.log.InfoContext(ctx, "creating knowledge collection", "collection", r.collectionName, "vector_size", vectorSize)
	err = r.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %w", r.collectionName, err)
	}
	return nil
}

// Search embeds the query and returns up to k passages above the score
// threshold, best first. Filter entries become must-match payload
// conditions.
func (r *QdrantRetriever) Search(ctx context.Context, query string, k int, filter map[string]string) ([]Document, error) {
	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	var must []*qdrant.Condition
	for key, value := range filter {
		must = append(must, qdrant.NewMatch(key, value))
	}
	var qf *qdrant.Filter
	if len(must) > 0 {
		qf = &qdrant.Filter{Must: must}
	}

	threshold := r.scoreThreshold
	res, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         qf,
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		ScoreThreshold: &threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	docs := make([]Document, 0, len(res))
	for _, hit := range res {
		payload := hit.Payload
		docs = append(docs, Document{
			ID:     hit.Id.GetUuid(),
			Title:  payload["title"].GetStringValue(),
			Text:   payload["text"].GetStringValue(),
			Source: payload["source"].GetStringValue(),
			Score:  hit.Score,
		})
	}
	r.log.DebugContext(ctx, "retrieval complete", "query_len", len(query), "hits", len(docs))
	return docs, nil
}
