package report

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	brerrors "github.com/matzehuels/blastradius/pkg/errors"
)

// MongoSink inserts each record as a document. Documents carry the run ID so
// several runs can share a collection.
type MongoSink struct {
	mu     sync.Mutex
	client *mongo.Client
	coll   *mongo.Collection
	closed bool
}

// NewMongoSink connects to uri and verifies the connection.
func NewMongoSink(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, brerrors.Wrap(brerrors.ErrCodeOutput, err, "connect mongodb")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, brerrors.Wrap(brerrors.ErrCodeOutput, err, "ping mongodb")
	}
	return &MongoSink{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (s *MongoSink) Write(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		return brerrors.Wrap(brerrors.ErrCodeOutput, err, "insert record for %s", r.Dependent)
	}
	return nil
}

func (s *MongoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
