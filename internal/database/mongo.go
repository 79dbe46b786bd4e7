package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ritheshsuvarna/natya/internal/models"
)

const (
	DefaultMongoDatabase = "bharatanatyam_db"
	AnalysesCollection   = "video_analyses"
)

var withoutObjectID = bson.M{"_id": 0}

// MongoStore keeps analysis records as documents keyed by their id field. It satisfies
// store.Persistent.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(dbName).Collection(AnalysesCollection)

	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Warnf("Failed to ensure index on %s.id: %v", AnalysesCollection, err)
	}

	log.Infof("Connected to MongoDB database %s", dbName)
	return &MongoStore{client: client, collection: collection}, nil
}

func (s *MongoStore) Name() string {
	return "mongo"
}

func (s *MongoStore) Insert(ctx context.Context, record *models.AnalysisRecord) error {
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	err := s.collection.FindOne(ctx, bson.M{"id": id},
		options.FindOne().SetProjection(withoutObjectID)).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	record.Timestamp = record.Timestamp.UTC()
	return &record, nil
}

func (s *MongoStore) SetStory(ctx context.Context, id, story string) error {
	update := bson.M{"$set": bson.M{
		"generated_story": story,
		"status":          models.StatusCompleted,
	}}

	result, err := s.collection.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update story: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("analysis %s not found", id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]*models.AnalysisRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(withoutObjectID)

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	var records []*models.AnalysisRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode analyses: %w", err)
	}
	for _, record := range records {
		record.Timestamp = record.Timestamp.UTC()
	}
	return records, nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return n, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
