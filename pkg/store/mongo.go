package store

import (
	"context"
	"fmt"

	"recipe-harvest/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists recipes in a MongoDB collection, keyed on source_url.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB and returns a store over the given
// database's "recipes" collection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection("recipes"),
	}, nil
}

// ListRecent returns up to limit recipes, most recently scraped first.
func (s *MongoStore) ListRecent(ctx context.Context, limit int) ([]*domain.Recipe, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "scraped_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("query recent recipes: %w", err)
	}
	defer cursor.Close(ctx)

	var recipes []*domain.Recipe
	for cursor.Next(ctx) {
		var r domain.Recipe
		if err := cursor.Decode(&r); err != nil {
			continue // Skip documents that no longer match the schema
		}
		recipes = append(recipes, &r)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return recipes, nil
}

// Upsert inserts or replaces the recipe stored under its SourceURL.
func (s *MongoStore) Upsert(ctx context.Context, recipe *domain.Recipe) error {
	filter := bson.M{"source_url": recipe.SourceURL}
	update := bson.M{"$set": recipe}
	opts := options.Update().SetUpsert(true)

	if _, err := s.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("upsert recipe %s: %w", recipe.SourceURL, err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
