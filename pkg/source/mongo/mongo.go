// Package mongo loads latency meshes from a MongoDB collection. Each
// document holds one directed edge; the node count lives in loader
// configuration because the mesh's node range is fixed ahead of time.
package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/latmesh/pkg/errors"
	"github.com/matzehuels/latmesh/pkg/graph"
	"github.com/matzehuels/latmesh/pkg/source"
)

// Config describes the MongoDB connection and the collection holding
// the edge documents.
type Config struct {
	URI        string
	Database   string
	Collection string

	// Nodes is the mesh's node count. Node ids in edge documents must
	// fall in [1, Nodes].
	Nodes int
}

// Loader reads edges from one MongoDB collection.
type Loader struct {
	client *mongo.Client
	cfg    Config
}

var _ source.Loader = (*Loader)(nil)

// edgeDoc mirrors one edge document. Extra fields in the collection
// are ignored.
type edgeDoc struct {
	From    int   `bson:"from"`
	To      int   `bson:"to"`
	Latency int64 `bson:"latency_us"`
}

// NewLoader connects to MongoDB and verifies the server is reachable.
func NewLoader(ctx context.Context, cfg Config) (*Loader, error) {
	if cfg.Nodes <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo source: node count must be positive, got %d", cfg.Nodes)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "connect to %s", cfg.URI)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeSource, err, "ping %s", cfg.URI)
	}
	return &Loader{client: client, cfg: cfg}, nil
}

// Load fetches every edge document and assembles the mesh. Edges come
// back sorted by (from, to) so repeated loads of an unchanged
// collection produce an identical mesh.
func (l *Loader) Load(ctx context.Context) (*graph.Mesh, error) {
	coll := l.client.Database(l.cfg.Database).Collection(l.cfg.Collection)

	opts := options.Find().SetSort(bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}})
	cur, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "query %s.%s", l.cfg.Database, l.cfg.Collection)
	}
	defer cur.Close(ctx)

	var docs []edgeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSource, err, "decode edges from %s.%s", l.cfg.Database, l.cfg.Collection)
	}

	edges := make([]graph.Edge, len(docs))
	for i, d := range docs {
		edges[i] = graph.Edge{From: d.From, To: d.To, Latency: d.Latency}
	}
	return &graph.Mesh{Nodes: l.cfg.Nodes, Edges: edges}, nil
}

// Close disconnects from MongoDB.
func (l *Loader) Close(ctx context.Context) error {
	if err := l.client.Disconnect(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeSource, err, "disconnect")
	}
	return nil
}
