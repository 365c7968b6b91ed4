package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"legal-rag/internal/contextutil"
)

const defaultGRPCPort = 6334

// QdrantStore is a VectorStore backed by a Qdrant server over gRPC.
type QdrantStore struct {
	client *qdrant.Client
}

// grpcAddr is where the gRPC API of a Qdrant server listens.
type grpcAddr struct {
	host string
	port int
	tls  bool
}

// NewQdrantStore connects to the Qdrant server whose REST API is at rawURL,
// for example http://localhost:6333. The gRPC API is expected on the REST port
// plus one. apiKey may be empty.
func NewQdrantStore(rawURL, apiKey string) (*QdrantStore, error) {
	addr, err := parseGRPCAddr(rawURL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   addr.host,
		Port:   addr.port,
		APIKey: apiKey,
		UseTLS: addr.tls,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return &QdrantStore{client: client}, nil
}

func parseGRPCAddr(rawURL string) (grpcAddr, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return grpcAddr{}, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	addr := grpcAddr{host: u.Hostname(), port: defaultGRPCPort, tls: u.Scheme == "https"}
	if addr.host == "" {
		addr.host = "localhost"
	}
	if p := u.Port(); p != "" {
		restPort, err := strconv.Atoi(p)
		if err != nil {
			return grpcAddr{}, fmt.Errorf("invalid Qdrant port %q: %w", p, err)
		}
		addr.port = restPort + 1
	}
	return addr, nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// ResetCollection drops and recreates collection.
func (s *QdrantStore) ResetCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be greater than 0, got %d", vectorSize)
	}

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", collection, err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, collection); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", collection, err)
		}
		logger.InfoContext(ctx, "dropped collection", "collection", collection)
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collection, err)
	}

	logger.InfoContext(ctx, "created collection", "collection", collection, "vector_size", vectorSize)
	return nil
}

// Upsert writes points and waits until they are searchable.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		structs[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(p.Payload),
		}
	}

	wait := true
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         structs,
	}); err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search queries the k nearest points with their payloads.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, errors.New("k must be greater than 0")
	}

	limit := uint64(k)
	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}

	results := make([]SearchResult, len(scored))
	for i, p := range scored {
		results[i] = SearchResult{
			PointID: p.GetId().GetUuid(),
			Score:   p.GetScore(),
			Payload: payloadToMap(p.GetPayload()),
		}
	}
	return results, nil
}

// Count returns the exact point count of collection.
func (s *QdrantStore) Count(ctx context.Context, collection string) (int, error) {
	exact := true
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points in %s: %w", collection, err)
	}
	return int(n), nil
}

// payloadToMap decodes the scalar payload fields the mirror writes. Other
// value kinds are dropped.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for key, v := range payload {
		switch kind := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			out[key] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			out[key] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[key] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			out[key] = kind.BoolValue
		}
	}
	return out
}
