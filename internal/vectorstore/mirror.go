package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"legal-rag/internal/contextutil"
	"legal-rag/internal/index"
)

// pointNamespace scopes the name-based point ids of this project.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://legal-rag/points"))

// DefaultBatchSize is the number of points sent per upsert call.
const DefaultBatchSize = 256

// PointID returns the stable point id of a chunk: a uuid v5 of "source#chunk_id".
func PointID(source, chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(source+"#"+chunkID)).String()
}

// Mirror copies a built index into a collection.
type Mirror struct {
	store      VectorStore
	collection string
	batchSize  int
}

// NewMirror creates a mirror writing to collection.
func NewMirror(store VectorStore, collection string) *Mirror {
	return &Mirror{store: store, collection: collection, batchSize: DefaultBatchSize}
}

// SetBatchSize changes the number of points per upsert call. Values below 1
// are ignored.
func (m *Mirror) SetBatchSize(n int) {
	if n >= 1 {
		m.batchSize = n
	}
}

// Sync replaces the collection with every indexed vector, its metadata and
// position, then checks the point count. Point IDs are stable per chunk.
func (m *Mirror) Sync(ctx context.Context, store *index.Store) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := m.store.ResetCollection(ctx, m.collection, store.Dim()); err != nil {
		return fmt.Errorf("failed to prepare collection: %w", err)
	}

	x := store.Index()
	meta := store.Metadata()

	for start := 0; start < len(meta); start += m.batchSize {
		end := min(start+m.batchSize, len(meta))
		batch := make([]Point, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, Point{
				ID:     PointID(meta[i].Source, meta[i].ChunkID),
				Vector: x.Vector(i),
				Payload: map[string]any{
					"position": i,
					"text":     meta[i].Text,
					"source":   meta[i].Source,
					"chunk_id": meta[i].ChunkID,
				},
			})
		}
		if err := m.store.Upsert(ctx, m.collection, batch); err != nil {
			return fmt.Errorf("failed to mirror points %d-%d: %w", start, end-1, err)
		}
	}

	n, err := m.store.Count(ctx, m.collection)
	if err != nil {
		return err
	}
	if n != store.Len() {
		return fmt.Errorf("%w: collection %s holds %d points, index has %d", index.ErrMisalignment, m.collection, n, store.Len())
	}

	logger.InfoContext(ctx, "mirrored index", "collection", m.collection, "points", n, "dimension", store.Dim())
	return nil
}
