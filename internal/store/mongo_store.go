package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicgrid/planportal-crawler/internal/planning"
)

// MongoConfig carries the connection parameters for the Mongo-backed store.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore persists case records in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	cases  *mongo.Collection
}

// NewMongoStore connects, pings, and ensures the natural-key index. It fails
// fast on any of the three so a misconfigured run dies before crawling.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &MongoStore{
		client: client,
		cases:  client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return s, nil
}

// ensureIndexes creates the unique compound index backing the natural key.
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.cases.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "council", Value: 1},
			{Key: "summary.reference", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func referenceFilter(council, reference string) bson.M {
	return bson.M{
		"council":           council,
		"summary.reference": reference,
	}
}

// FindByReference returns the record for (council, reference) or (nil, nil).
func (s *MongoStore) FindByReference(ctx context.Context, council, reference string) (*planning.CaseRecord, error) {
	var rec planning.CaseRecord
	err := s.cases.FindOne(ctx, referenceFilter(council, reference)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by reference: %w", err)
	}
	return &rec, nil
}

// FindByReferenceWithDecision additionally requires an attached decision
// notice document.
func (s *MongoStore) FindByReferenceWithDecision(ctx context.Context, council, reference string) (*planning.CaseRecord, error) {
	filter := referenceFilter(council, reference)
	filter["documents"] = bson.M{
		"$elemMatch": bson.M{"doc_type": string(planning.DocDecisionNotice)},
	}

	var rec planning.CaseRecord
	err := s.cases.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by reference with decision: %w", err)
	}
	return &rec, nil
}

// Insert writes a new case record.
func (s *MongoStore) Insert(ctx context.Context, rec *planning.CaseRecord) error {
	if _, err := s.cases.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert case record: %w", err)
	}
	return nil
}

// UpdateByReference replaces the merge-update fields via $set and returns
// the match count.
func (s *MongoStore) UpdateByReference(ctx context.Context, council, reference string, upd CaseUpdate) (int64, error) {
	update := bson.M{
		"$set": bson.M{
			"summary":             upd.Summary,
			"further_information": upd.FurtherInformation,
			"agent_details":       upd.AgentDetails,
			"documents":           upd.Documents,
			"updated_at":          upd.UpdatedAt,
			"updated_by":          upd.UpdatedBy,
		},
	}
	res, err := s.cases.UpdateOne(ctx, referenceFilter(council, reference), update)
	if err != nil {
		return 0, fmt.Errorf("update case record: %w", err)
	}
	return res.MatchedCount, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}
