package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/observability"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "flowbuilder"
	DefaultMongoCollection = "drafts"
)

// draftDoc is the stored document. The payload is kept as its JSON text
// so that node data round-trips without BSON type changes.
type draftDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Nodes     int       `bson:"nodes"`
	Edges     int       `bson:"edges"`
	UpdatedAt time.Time `bson:"updated_at"`
	Payload   string    `bson:"payload"`
}

// MongoStore keeps one document per draft.
type MongoStore struct {
	coll   *mongo.Collection
	client *mongo.Client
	now    func() time.Time
}

// NewMongoStore connects to cfg.URI, pings the server and ensures an index
// on update time.
func NewMongoStore(ctx context.Context, cfg Config) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, storageErr("connect to mongo for", cfg.URI, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, storageErr("ping mongo for", cfg.URI, err)
	}

	db, coll := cfg.Database, cfg.Collection
	if db == "" {
		db = DefaultMongoDatabase
	}
	if coll == "" {
		coll = DefaultMongoCollection
	}
	s := NewMongoStoreFromCollection(client.Database(db).Collection(coll))
	s.client = client

	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, storageErr("index", coll, err)
	}
	return s, nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close leaves
// the client connected.
func NewMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll, now: time.Now}
}

func retryMongo(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return Retryable(err)
	}
	return err
}

func (s *MongoStore) Save(ctx context.Context, id string, p graph.Payload) (err error) {
	if err := checkID(id); err != nil {
		return err
	}
	data, err := graph.MarshalPayload(p)
	if err != nil {
		return storageErr("encode", id, err)
	}
	defer func() { observability.Store().OnSave(ctx, string(BackendMongo), id, len(data), err) }()

	info := newInfo(id, p, s.now())
	doc := draftDoc{
		ID:        id,
		Name:      info.Name,
		Nodes:     info.Nodes,
		Edges:     info.Edges,
		UpdatedAt: info.UpdatedAt,
		Payload:   string(data),
	}
	err = RetryWithBackoff(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
		return retryMongo(err)
	})
	return storageErr("save", id, err)
}

func (s *MongoStore) Load(ctx context.Context, id string) (p graph.Payload, err error) {
	if err := checkID(id); err != nil {
		return graph.Payload{}, err
	}
	defer func() { observability.Store().OnLoad(ctx, string(BackendMongo), id, err) }()

	var doc draftDoc
	err = RetryWithBackoff(ctx, func() error {
		return retryMongo(s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc))
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return graph.Payload{}, notFound(id)
	}
	if err != nil {
		return graph.Payload{}, storageErr("load", id, err)
	}
	p, err = graph.UnmarshalPayload([]byte(doc.Payload))
	if err != nil {
		return graph.Payload{}, storageErr("decode", id, err)
	}
	return p, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"payload": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storageErr("list", s.coll.Name(), err)
	}
	out := []Info{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, storageErr("list", s.coll.Name(), err)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return storageErr("delete", id, err)
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
