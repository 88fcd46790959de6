// Package mongodb implements the bridge driver interfaces on top of the
// official MongoDB driver.
package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"docbridge/bridge/common"
	"docbridge/bridge/driver"
)

var Logger = logger.GetLogger("driver")

// NewFactory creates the MongoDB driver factory
func NewFactory() driver.IDriverFactory {
	return &mongoFactory{}
}

type mongoFactory struct{}

// Open materializes a MongoDB client for the target URI. The initial
// ping runs inside the caller's context so establishment stays bounded.
func (f *mongoFactory) Open(ctx context.Context, target string, opts driver.Options) (driver.IDriver, error) {
	clientOpts := options.Client().
		ApplyURI(target).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetMinPoolSize(opts.MinPoolSize).
		SetServerSelectionTimeout(time.Duration(opts.SelectionTimeoutMs) * time.Millisecond)

	if opts.SocketTimeoutMs > 0 {
		clientOpts.SetSocketTimeout(time.Duration(opts.SocketTimeoutMs) * time.Millisecond)
	}

	// ApplyURI defers its parse error to Validate
	if err := clientOpts.Validate(); err != nil {
		return nil, common.WrapError(common.KindInvalidTarget, err, "invalid connection string")
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, common.WrapError(common.KindUnreachable, err, "failed to connect")
	}

	// Connect is lazy, force a round trip so Create fails fast
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, common.WrapError(common.KindUnreachable, err, "target did not respond to ping")
	}

	return &mongoDriver{client: client}, nil
}

// mongoDriver implements driver.IDriver on a mongo.Client
type mongoDriver struct {
	client *mongo.Client
}

// --------------------------------------------------------------------------
// Interface Methods (docu see driver.IDriver)
// --------------------------------------------------------------------------

func (d *mongoDriver) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

func (d *mongoDriver) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *mongoDriver) InsertOne(ctx context.Context, database, collection string, document []byte) (string, error) {
	doc, err := parseDocument(document)
	if err != nil {
		return "", err
	}

	res, err := d.client.Database(database).Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}

	// ObjectIDs render as hex, anything else falls back to extended JSON
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	raw, err := bson.MarshalExtJSON(bson.M{"id": res.InsertedID}, true, false)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (d *mongoDriver) FindOne(ctx context.Context, database, collection string, filter []byte) ([]byte, bool, error) {
	f, err := parseDocument(filter)
	if err != nil {
		return nil, false, err
	}

	var doc bson.M
	err = d.client.Database(database).Collection(collection).FindOne(ctx, f).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	raw, err := bson.MarshalExtJSON(doc, true, false)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (d *mongoDriver) UpdateOne(ctx context.Context, database, collection string, filter, update []byte) (int64, int64, error) {
	f, err := parseDocument(filter)
	if err != nil {
		return 0, 0, err
	}
	u, err := parseDocument(update)
	if err != nil {
		return 0, 0, err
	}

	res, err := d.client.Database(database).Collection(collection).UpdateOne(ctx, f, u)
	if err != nil {
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

func (d *mongoDriver) DeleteOne(ctx context.Context, database, collection string, filter []byte) (int64, error) {
	f, err := parseDocument(filter)
	if err != nil {
		return 0, err
	}

	res, err := d.client.Database(database).Collection(collection).DeleteOne(ctx, f)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (d *mongoDriver) CountDocuments(ctx context.Context, database, collection string, filter []byte) (int64, error) {
	f, err := parseDocument(filter)
	if err != nil {
		return 0, err
	}

	return d.client.Database(database).Collection(collection).CountDocuments(ctx, f)
}

func (d *mongoDriver) Find(ctx context.Context, database, collection string, filter []byte, limit int64) ([][]byte, error) {
	f, err := parseDocument(filter)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find()
	if limit > 0 {
		findOpts.SetLimit(limit)
	}

	cursor, err := d.client.Database(database).Collection(collection).Find(ctx, f, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs [][]byte
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		raw, err := bson.MarshalExtJSON(doc, true, false)
		if err != nil {
			return nil, err
		}
		docs = append(docs, raw)
	}
	return docs, cursor.Err()
}

func (d *mongoDriver) InsertMany(ctx context.Context, database, collection string, documents [][]byte) ([]string, error) {
	if len(documents) == 0 {
		return nil, common.NewError(common.KindRequestRejected, "insertMany requires at least one document")
	}

	docs := make([]interface{}, len(documents))
	for i, document := range documents {
		doc, err := parseDocument(document)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}

	res, err := d.client.Database(database).Collection(collection).InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok {
			ids[i] = oid.Hex()
			continue
		}
		raw, err := bson.MarshalExtJSON(bson.M{"id": id}, true, false)
		if err != nil {
			return nil, err
		}
		ids[i] = string(raw)
	}
	return ids, nil
}

func (d *mongoDriver) UpdateMany(ctx context.Context, database, collection string, filter, update []byte) (int64, int64, error) {
	f, err := parseDocument(filter)
	if err != nil {
		return 0, 0, err
	}
	u, err := parseDocument(update)
	if err != nil {
		return 0, 0, err
	}

	res, err := d.client.Database(database).Collection(collection).UpdateMany(ctx, f, u)
	if err != nil {
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

func (d *mongoDriver) DeleteMany(ctx context.Context, database, collection string, filter []byte) (int64, error) {
	f, err := parseDocument(filter)
	if err != nil {
		return 0, err
	}

	res, err := d.client.Database(database).Collection(collection).DeleteMany(ctx, f)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// parseDocument converts a JSON payload into a bson document.
// An empty payload becomes the match-all document.
func parseDocument(data []byte) (bson.M, error) {
	if len(data) == 0 {
		return bson.M{}, nil
	}

	var doc bson.M
	if err := bson.UnmarshalExtJSON(data, true, &doc); err != nil {
		return nil, common.WrapError(common.KindRequestRejected, err, "malformed document")
	}
	return doc, nil
}
