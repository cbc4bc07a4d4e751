package sink

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"broker-scout/internal/models"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "ibba"
	DefaultMongoCollection = "brokers"
)

// brokerDocument is the stored shape: the record fields plus run metadata.
type brokerDocument struct {
	models.Record `bson:",inline"`
	Place         string    `bson:"place"`
	ScrapedAt     time.Time `bson:"scraped_at"`
}

// InsertFunc stores one document.
type InsertFunc func(ctx context.Context, doc any) error

// MongoSink appends every record to a collection.
type MongoSink struct {
	insert InsertFunc
	close  func(ctx context.Context) error
	place  string
	now    func() time.Time
}

// NewMongoSink connects to uri and checks the primary is reachable.
func NewMongoSink(ctx context.Context, uri, database, collection, place string) (*MongoSink, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	s := NewMongoSinkWithInsert(func(ctx context.Context, doc any) error {
		_, err := coll.InsertOne(ctx, doc)
		return err
	}, place)
	s.close = client.Disconnect
	return s, nil
}

// NewMongoSinkWithInsert builds a sink on a custom insert function (tests).
func NewMongoSinkWithInsert(insert InsertFunc, place string) *MongoSink {
	return &MongoSink{
		insert: insert,
		place:  place,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Name implements Sink.
func (s *MongoSink) Name() string {
	return "mongo"
}

// Accept implements Sink.
func (s *MongoSink) Accept(ctx context.Context, rec models.Record) error {
	return s.insert(ctx, brokerDocument{Record: rec, Place: s.place, ScrapedAt: s.now()})
}

// Close disconnects the client if the sink owns one.
func (s *MongoSink) Close() error {
	if s.close == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.close(ctx)
}
