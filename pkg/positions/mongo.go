package positions

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/codemap/pkg/cache"
	"github.com/matzehuels/codemap/pkg/graph"
)

const defaultMongoDatabase = "codemap"

// MongoStore keeps one document {_id: <node id>, x, y} per position.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type positionDoc struct {
	ID string  `bson:"_id"`
	X  float64 `bson:"x"`
	Y  float64 `bson:"y"`
}

// NewMongoStore connects to uri. The database is taken from the URI path
// (default "codemap"); collection defaults to [DefaultNamespace].
func NewMongoStore(ctx context.Context, uri, collection string) (*MongoStore, error) {
	db, err := mongoDatabase(uri)
	if err != nil {
		return nil, err
	}
	if collection == "" {
		collection = DefaultNamespace
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(collection),
	}, nil
}

func (s *MongoStore) Load(ctx context.Context) (map[string]graph.Point, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	var docs []positionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	out := make(map[string]graph.Point, len(docs))
	for _, d := range docs {
		out[d.ID] = graph.Point{X: d.X, Y: d.Y}
	}
	return out, nil
}

func (s *MongoStore) Save(ctx context.Context, key string, p graph.Point) error {
	err := retryMongo(ctx, func() error {
		_, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": key},
			bson.M{"$set": bson.M{"x": p.X, "y": p.Y}},
			options.Update().SetUpsert(true),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("save position %s: %w", key, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, key string) error {
	err := retryMongo(ctx, func() error {
		_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
		return err
	})
	if err != nil {
		return fmt.Errorf("delete position %s: %w", key, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// retryMongo repeats fn on network errors and timeouts.
func retryMongo(ctx context.Context, fn func() error) error {
	return cache.DefaultRetry.Do(ctx, func() error {
		err := fn()
		if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
			return cache.Transient(fmt.Errorf("%w: %v", cache.ErrUnavailable, err))
		}
		return err
	})
}

// mongoDatabase extracts the database name from a connection string.
func mongoDatabase(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse mongo uri: %w", err)
	}
	if db := strings.Trim(u.Path, "/"); db != "" {
		return db, nil
	}
	return defaultMongoDatabase, nil
}

var _ Store = (*MongoStore)(nil)
